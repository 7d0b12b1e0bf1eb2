package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmolina/fichabot/internal/checkin"
	"github.com/dmolina/fichabot/internal/sesame"
)

func TestOutcomeMessage(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		assert.Equal(t, msgSuccess, outcomeMessage(checkin.OutcomeConfirmed, nil))
	})

	t.Run("already done", func(t *testing.T) {
		assert.Equal(t, msgAlreadyDone, outcomeMessage(checkin.OutcomeAlreadyDone, nil))
	})

	t.Run("failure includes detail", func(t *testing.T) {
		err := &checkin.AttemptError{
			Kind: checkin.FailureRemote,
			Err:  &sesame.APIError{StatusCode: 500, Body: "server exploded"},
		}
		got := outcomeMessage("", err)
		assert.Contains(t, got, "❌ Error al fichar")
		assert.Contains(t, got, "server exploded")
	})
}
