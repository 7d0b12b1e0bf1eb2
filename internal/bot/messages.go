package bot

import (
	"errors"
	"fmt"

	"github.com/dmolina/fichabot/internal/checkin"
)

// User-facing texts, kept in the bot's original voice.
const (
	msgWelcome     = "📌 Bienvenido. Pulsa el botón para fichar cuando quieras:"
	msgInProgress  = "🔄 Realizando fichaje..."
	msgSuccess     = "✅ Fichaje realizado correctamente."
	msgAlreadyDone = "⚠️ Ya has fichado hoy, no es necesario volver a fichar."
	msgCancelled   = "⚠️ Recordatorios cancelados para hoy."
	msgReminder    = "⏰ ¿Te has olvidado de fichar hoy? Elige una opción:"

	buttonCheckIn = "✅ Fichar ahora"
	buttonCancel  = "⛔️ Cancelar"

	callbackCheckIn = "fichar"
	callbackCancel  = "cancelar"
)

// outcomeMessage translates an Attempt result into the notification text.
func outcomeMessage(outcome checkin.Outcome, err error) string {
	if err != nil {
		var aerr *checkin.AttemptError
		if errors.As(err, &aerr) {
			return fmt.Sprintf("❌ Error al fichar:\n%v", aerr.Err)
		}
		return fmt.Sprintf("❌ Error al fichar:\n%v", err)
	}
	if outcome == checkin.OutcomeAlreadyDone {
		return msgAlreadyDone
	}
	return msgSuccess
}
