package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmolina/fichabot/internal/sesame"
	"github.com/dmolina/fichabot/internal/state"
)

// fakeClient counts calls and returns configurable failures.
type fakeClient struct {
	mu         sync.Mutex
	loginErr   error
	checkInErr error
	logins     int
	checkIns   int
}

func (f *fakeClient) Login(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "token", nil
}

func (f *fakeClient) CheckIn(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkIns++
	return f.checkInErr
}

func (f *fakeClient) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.checkIns
}

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

func newTestTracker(t *testing.T, client RemoteClient) (*Tracker, *state.Store) {
	t.Helper()
	store, err := state.NewStore(t.TempDir(), testLocation(t))
	require.NoError(t, err)
	return NewTracker(store, client, testLocation(t)), store
}

func TestAttemptSuccess(t *testing.T) {
	client := &fakeClient{}
	tracker, store := newTestTracker(t, client)

	outcome, err := tracker.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome)
	assert.True(t, tracker.Done())

	// One history record with today's check-in.
	entries := store.LoadHistory()
	require.Len(t, entries, 1)

	// Persisted state reflects done for today.
	loaded := store.Load(time.Now().In(testLocation(t)))
	assert.Equal(t, state.StatusDone, loaded.Status)
}

func TestAttemptAlreadyDoneSkipsRemote(t *testing.T) {
	client := &fakeClient{}
	tracker, store := newTestTracker(t, client)

	_, err := tracker.Attempt(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		outcome, err := tracker.Attempt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyDone, outcome)
	}

	logins, checkIns := client.counts()
	assert.Equal(t, 1, logins, "no remote call after confirmation")
	assert.Equal(t, 1, checkIns)
	assert.Len(t, store.LoadHistory(), 1)
}

func TestAttemptAuthFailureLeavesStatePending(t *testing.T) {
	client := &fakeClient{loginErr: &sesame.AuthError{StatusCode: 401, Body: "nope"}}
	tracker, store := newTestTracker(t, client)

	_, err := tracker.Attempt(context.Background())
	var aerr *AttemptError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, FailureAuth, aerr.Kind)
	assert.False(t, tracker.Done())
	assert.Empty(t, store.LoadHistory())

	// A later retry the same day re-attempts login and can succeed.
	client.mu.Lock()
	client.loginErr = nil
	client.mu.Unlock()

	outcome, err := tracker.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome)

	logins, _ := client.counts()
	assert.Equal(t, 2, logins)
}

func TestAttemptRemoteFailureLeavesStatePending(t *testing.T) {
	client := &fakeClient{checkInErr: &sesame.APIError{StatusCode: 500, Body: "boom"}}
	tracker, store := newTestTracker(t, client)

	_, err := tracker.Attempt(context.Background())
	var aerr *AttemptError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, FailureRemote, aerr.Kind)
	assert.False(t, tracker.Done())
	assert.Empty(t, store.LoadHistory())
}

func TestAttemptTransportFailureClassified(t *testing.T) {
	client := &fakeClient{loginErr: context.DeadlineExceeded}
	tracker, _ := newTestTracker(t, client)

	_, err := tracker.Attempt(context.Background())
	var aerr *AttemptError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, FailureTransport, aerr.Kind)
}

func TestConcurrentAttemptsSubmitOnce(t *testing.T) {
	client := &fakeClient{}
	tracker, store := newTestTracker(t, client)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.Attempt(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, checkIns := client.counts()
	assert.Equal(t, 1, checkIns, "concurrent triggers must submit exactly once")
	assert.Len(t, store.LoadHistory(), 1)
}

func TestCancelSuppressesWithoutHistory(t *testing.T) {
	client := &fakeClient{}
	tracker, store := newTestTracker(t, client)

	assert.True(t, tracker.Cancel())
	assert.True(t, tracker.Done(), "suppressed counts as handled for reminders")
	assert.Equal(t, state.StatusSuppressed, tracker.Snapshot().Status)
	assert.Empty(t, store.LoadHistory(), "cancel never claims a real check-in")

	logins, checkIns := client.counts()
	assert.Zero(t, logins)
	assert.Zero(t, checkIns)

	// Cancelling an already handled day is a no-op.
	assert.False(t, tracker.Cancel())
}

func TestResetAllowsNewAttempt(t *testing.T) {
	client := &fakeClient{}
	tracker, store := newTestTracker(t, client)

	_, err := tracker.Attempt(context.Background())
	require.NoError(t, err)
	require.True(t, tracker.Done())

	tracker.Reset()
	assert.False(t, tracker.Done())

	outcome, err := tracker.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome)

	_, checkIns := client.counts()
	assert.Equal(t, 2, checkIns)
	assert.Len(t, store.LoadHistory(), 2)
}

func TestImplicitRolloverOnStaleDate(t *testing.T) {
	client := &fakeClient{}
	tracker, _ := newTestTracker(t, client)

	_, err := tracker.Attempt(context.Background())
	require.NoError(t, err)
	require.True(t, tracker.Done())

	// Move the clock past midnight; the next operation resets the day
	// without waiting for the scheduled job.
	tracker.mu.Lock()
	tracker.now = func() time.Time { return time.Now().AddDate(0, 0, 1) }
	tracker.mu.Unlock()

	assert.False(t, tracker.Done(), "stale date must read as not checked in")

	outcome, err := tracker.Attempt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome)
}

func TestPersistedStateSurvivesRestart(t *testing.T) {
	loc := testLocation(t)
	dir := t.TempDir()

	store, err := state.NewStore(dir, loc)
	require.NoError(t, err)
	tracker := NewTracker(store, &fakeClient{}, loc)
	_, err = tracker.Attempt(context.Background())
	require.NoError(t, err)

	// Fresh store and tracker over the same directory: mid-day restart.
	store2, err := state.NewStore(dir, loc)
	require.NoError(t, err)
	restarted := NewTracker(store2, &fakeClient{}, loc)
	assert.True(t, restarted.Done(), "restart must see the last saved flag")
}
