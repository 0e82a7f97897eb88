package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
)

// memoryStore round-trips snapshots through JSON like the Redis store does.
type memoryStore struct {
	mu      sync.Mutex
	data    map[uuid.UUID][]byte
	locked  map[uuid.UUID]bool
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[uuid.UUID][]byte{}, locked: map[uuid.UUID]bool{}}
}

func (m *memoryStore) Lock(_ context.Context, id uuid.UUID) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[id] {
		return nil, ErrBusy
	}
	m.locked[id] = true
	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locked, id)
		return nil
	}, nil
}

func (m *memoryStore) Load(_ context.Context, id uuid.UUID) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	var e Engine
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (m *memoryStore) Save(_ context.Context, id uuid.UUID, e *Engine) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = raw
	return nil
}

type fakeSaver struct {
	summaries []Summary
	err       error
}

func (f *fakeSaver) SaveSummary(_ context.Context, s Summary) error {
	if f.err != nil {
		return f.err
	}
	f.summaries = append(f.summaries, s)
	return nil
}

type fakeAttempts struct {
	levels []int
}

func (f fakeAttempts) AttemptedLevels(context.Context, auth.AttemptLookup) ([]int, error) {
	return f.levels, nil
}

func newTestGame(t *testing.T, opts ServiceOptions) (*Service, *memoryStore, *fakeSaver) {
	t.Helper()
	store := newMemoryStore()
	saver := &fakeSaver{}
	now := start
	if opts.Clock == nil {
		opts.Clock = func() time.Time {
			now = now.Add(2 * time.Second)
			return now
		}
	}
	if opts.Rand == nil {
		opts.Rand = identityRand
	}
	svc := NewService(store, saver, fakeAttempts{levels: []int{3}}, mustBank(t), opts, zerolog.Nop())
	return svc, store, saver
}

func TestService_AutoBeginsAtLevelSelection(t *testing.T) {
	svc, _, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	v, err := svc.View(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, StateLevelSelection, v.State)
	assert.Equal(t, []catalog.Level{3}, v.Attempted)

	_, err = svc.SelectLevel(ctx, student, 3)
	assert.ErrorIs(t, err, ErrLevelAttempted)
}

func TestService_StudentLoggedInReplacesEngine(t *testing.T) {
	svc, _, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	_, err := svc.SelectLevel(ctx, student, 1)
	require.NoError(t, err)

	require.NoError(t, svc.StudentLoggedIn(ctx, auth.Student{ID: student.UserID, Email: student.Email, AttemptedLevels: []int{1, 2}}))
	v, err := svc.View(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, StateLevelSelection, v.State)
	assert.Equal(t, []catalog.Level{1, 2}, v.Attempted)
}

func playThroughService(t *testing.T, svc *Service, level int) View {
	t.Helper()
	ctx := context.Background()
	v, err := svc.SelectLevel(ctx, student, level)
	require.NoError(t, err)

	for v.State == StatePlaying {
		item, ok := svc.Bank().Item(v.Item.ID)
		require.True(t, ok)
		for _, c := range item.CorrectCategories() {
			v, err = svc.SelectCategory(ctx, student, string(c))
			require.NoError(t, err)
		}
		v, err = svc.Submit(ctx, student)
		require.NoError(t, err)
		require.NotNil(t, v.Feedback)
		assert.True(t, v.Feedback.Correct)
		v, err = svc.Next(ctx, student)
		require.NoError(t, err)
	}
	return v
}

func TestService_FullPlayThrough(t *testing.T) {
	svc, _, saver := newTestGame(t, ServiceOptions{ItemsPerSession: 4})
	ctx := context.Background()

	v := playThroughService(t, svc, 1)
	assert.Equal(t, StateGameOver, v.State)
	require.NotNil(t, v.Result)
	assert.Equal(t, 100, v.Result.Percentage)

	v, err := svc.ProceedToFeedback(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, StateFeedback, v.State)

	v, err = svc.SubmitFeedback(ctx, student, "more dual items please")
	require.NoError(t, err)
	assert.Equal(t, StateReportPreview, v.State)
	require.NotNil(t, v.Save)
	assert.True(t, v.Save.Saved)
	assert.Equal(t, []catalog.Level{1, 3}, v.Attempted)

	require.Len(t, saver.summaries, 1)
	sum := saver.summaries[0]
	assert.Equal(t, 4, sum.Score)
	assert.Equal(t, 4, sum.TotalQuestions)
	assert.Len(t, sum.Answers, 4)
	assert.Equal(t, "more dual items please", sum.FeedbackText)
	assert.False(t, sum.EndTime.Before(sum.StartTime))
	assert.Equal(t, int(sum.EndTime.Sub(sum.StartTime).Seconds()), sum.TimeTakenSeconds)

	v, err = svc.BackToLevels(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, StateLevelSelection, v.State)
	assert.Nil(t, v.Level)

	_, err = svc.SelectLevel(ctx, student, 1)
	assert.ErrorIs(t, err, ErrLevelAttempted)
}

func TestService_StrictSaveFailureIsPersisted(t *testing.T) {
	svc, _, saver := newTestGame(t, ServiceOptions{ItemsPerSession: 2, SavePolicy: SaveStrict})
	ctx := context.Background()
	saver.err = errors.New("db down")

	playThroughService(t, svc, 2)
	_, err := svc.ProceedToFeedback(ctx, student)
	require.NoError(t, err)

	v, err := svc.SubmitFeedback(ctx, student, "")
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, StateFeedback, v.State)

	v, err = svc.View(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, v.Save)
	assert.False(t, v.Save.Saved)
}

func TestService_BestEffortSaveFailureAdvances(t *testing.T) {
	svc, _, saver := newTestGame(t, ServiceOptions{ItemsPerSession: 2})
	ctx := context.Background()
	saver.err = errors.New("db down")

	playThroughService(t, svc, 2)
	_, err := svc.ProceedToFeedback(ctx, student)
	require.NoError(t, err)

	v, err := svc.SubmitFeedback(ctx, student, "")
	require.NoError(t, err)
	assert.Equal(t, StateReportPreview, v.State)
	assert.False(t, v.Save.Saved)
	assert.Equal(t, "Your session could not be saved.", v.Save.Message)
}

func TestService_InvalidInputs(t *testing.T) {
	svc, _, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	_, err := svc.SelectLevel(ctx, student, 0)
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = svc.SelectCategory(ctx, student, "REVENUE")
	assert.ErrorIs(t, err, catalog.ErrUnknownCategory)

	_, err = svc.Submit(ctx, student)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_NoOpInputsKeepView(t *testing.T) {
	svc, _, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	before, err := svc.SelectLevel(ctx, student, 1)
	require.NoError(t, err)

	after, err := svc.Submit(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_UnknownStateRecoversWithReset(t *testing.T) {
	svc, store, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	e := NewEngine()
	e.Machine.State = State("LEGACY_SCREEN")
	require.NoError(t, store.Save(ctx, student.UserID, e))

	v, err := svc.SkipFeedback(ctx, student)
	assert.ErrorIs(t, err, ErrUnknownState)
	assert.Equal(t, State("LEGACY_SCREEN"), v.State)

	v, err = svc.Reset(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, StateLogin, v.State)
}

func TestService_Busy(t *testing.T) {
	svc, store, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	unlock, err := store.Lock(ctx, student.UserID)
	require.NoError(t, err)
	_, err = svc.View(ctx, student)
	assert.ErrorIs(t, err, ErrBusy)
	require.NoError(t, unlock())

	_, err = svc.View(ctx, student)
	assert.NoError(t, err)
}

func TestService_Logout(t *testing.T) {
	svc, _, _ := newTestGame(t, ServiceOptions{})
	ctx := context.Background()

	_, err := svc.SelectLevel(ctx, student, 2)
	require.NoError(t, err)
	v, err := svc.Logout(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, StateLogin, v.State)

	_, err = svc.SelectLevel(ctx, student, 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
