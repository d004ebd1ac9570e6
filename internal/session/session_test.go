package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func slotAt(hour, minute int, available bool) domain.Slot {
	start := monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return domain.Slot{Start: start, End: start.Add(30 * time.Minute), Available: available}
}

// scriptedFetcher returns the next scripted answer; gate, when set, holds each call until released
type scriptedFetcher struct {
	mu       sync.Mutex
	answers  [][]domain.Slot
	err      error
	calls    int
	returned int
	gates    map[int]chan struct{}
}

func (f *scriptedFetcher) FetchSlots(ctx context.Context, _ time.Time) ([]domain.Slot, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	gate := f.gates[call]
	var answer []domain.Slot
	if call < len(f.answers) {
		answer = f.answers[call]
	} else if len(f.answers) > 0 {
		answer = f.answers[len(f.answers)-1]
	}
	err := f.err
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.returned++
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return answer, err
}

func (f *scriptedFetcher) returnedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.returned
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeSubmitter) Submit(_ context.Context, req BookingRequest) (*Confirmation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Confirmation{AppointmentID: 42, ConfirmationCode: "K7Q2ZP", Start: req.Start, End: req.End}, nil
}

func morning() []domain.Slot {
	return []domain.Slot{slotAt(9, 0, true), slotAt(9, 30, false), slotAt(10, 0, true)}
}

func toForm(t *testing.T, s *Session, slot domain.Slot) {
	t.Helper()
	require.NoError(t, s.SelectDate(context.Background(), monday))
	require.NoError(t, s.WaitSlots(context.Background()))
	require.NoError(t, s.SelectSlot(slot))
	require.Equal(t, StateForm, s.State())
}

var contact = domain.Contact{Name: "Anna", Email: "anna@example.com"}

func TestSession_HappyPath(t *testing.T) {
	fetcher := &scriptedFetcher{answers: [][]domain.Slot{morning()}}
	submitter := &fakeSubmitter{}
	s := New(fetcher, submitter)

	assert.Equal(t, StateCalendar, s.State())
	toForm(t, s, slotAt(10, 0, true))

	conf, err := s.Submit(context.Background(), contact, nil)

	require.NoError(t, err)
	assert.Equal(t, "K7Q2ZP", conf.ConfirmationCode)
	assert.Equal(t, slotAt(10, 0, true).Start, conf.Start)

	v := s.View()
	assert.Equal(t, StateConfirmation, v.State)
	require.NotNil(t, v.Confirmation)
	assert.Equal(t, int64(42), v.Confirmation.AppointmentID)
	assert.Equal(t, 1, submitter.calls)
}

func TestSession_LoadingUntilSlotsArrive(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &scriptedFetcher{answers: [][]domain.Slot{morning()}, gates: map[int]chan struct{}{0: gate}}
	s := New(fetcher, &fakeSubmitter{})

	require.NoError(t, s.SelectDate(context.Background(), monday))

	v := s.View()
	assert.Equal(t, StateTime, v.State)
	assert.True(t, v.Loading)
	assert.ErrorIs(t, s.SelectSlot(slotAt(9, 0, true)), ErrSlotsLoading)

	close(gate)
	require.NoError(t, s.WaitSlots(context.Background()))

	v = s.View()
	assert.False(t, v.Loading)
	assert.Len(t, v.Slots, 3)
}

func TestSession_StaleFetchIsDropped(t *testing.T) {
	first := make(chan struct{})
	fetcher := &scriptedFetcher{
		answers: [][]domain.Slot{{slotAt(15, 0, true)}, morning()},
		gates:   map[int]chan struct{}{0: first},
	}
	s := New(fetcher, &fakeSubmitter{})

	// the first fetch hangs while the visitor goes back and picks another date
	require.NoError(t, s.SelectDate(context.Background(), monday.AddDate(0, 0, 1)))
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Back())
	require.NoError(t, s.SelectDate(context.Background(), monday))
	require.NoError(t, s.WaitSlots(context.Background()))

	close(first)
	require.Eventually(t, func() bool { return fetcher.returnedCount() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	v := s.View()
	assert.Equal(t, monday, v.Date)
	assert.Equal(t, morning(), v.Slots)
}

func TestSession_SelectSlotRules(t *testing.T) {
	s := New(&scriptedFetcher{answers: [][]domain.Slot{morning()}}, &fakeSubmitter{})

	assert.ErrorIs(t, s.SelectSlot(slotAt(9, 0, true)), ErrIllegalTransition)

	require.NoError(t, s.SelectDate(context.Background(), monday))
	require.NoError(t, s.WaitSlots(context.Background()))

	assert.ErrorIs(t, s.SelectSlot(slotAt(9, 30, true)), ErrSlotUnavailable)
	assert.ErrorIs(t, s.SelectSlot(slotAt(13, 0, true)), ErrSlotUnavailable)
	assert.Equal(t, StateTime, s.State())

	// availability comes from the loaded list, not from the argument
	require.NoError(t, s.SelectSlot(slotAt(9, 0, false)))
	assert.Equal(t, StateForm, s.State())
}

func TestSession_IllegalTransitions(t *testing.T) {
	s := New(&scriptedFetcher{answers: [][]domain.Slot{morning()}}, &fakeSubmitter{})

	_, err := s.Submit(context.Background(), contact, nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.ErrorIs(t, s.Back(), ErrIllegalTransition)

	toForm(t, s, slotAt(9, 0, true))
	assert.ErrorIs(t, s.SelectDate(context.Background(), monday), ErrIllegalTransition)

	_, err = s.Submit(context.Background(), contact, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Back(), ErrIllegalTransition)
	assert.ErrorIs(t, s.SelectDate(context.Background(), monday), ErrIllegalTransition)
	assert.Equal(t, StateConfirmation, s.State())
}

func TestSession_Back(t *testing.T) {
	s := New(&scriptedFetcher{answers: [][]domain.Slot{morning()}}, &fakeSubmitter{})
	toForm(t, s, slotAt(9, 0, true))

	// form -> time keeps the slots
	require.NoError(t, s.Back())
	v := s.View()
	assert.Equal(t, StateTime, v.State)
	assert.Nil(t, v.Selected)
	assert.Len(t, v.Slots, 3)

	// time -> calendar drops the date and the slots
	require.NoError(t, s.Back())
	v = s.View()
	assert.Equal(t, StateCalendar, v.State)
	assert.True(t, v.Date.IsZero())
	assert.Nil(t, v.Slots)
}

// A conflict on submit leads back to time selection with refreshed slots
func TestSession_SubmitConflictReturnsToTime(t *testing.T) {
	refreshed := []domain.Slot{slotAt(9, 0, true), slotAt(9, 30, false), slotAt(10, 0, false)}
	fetcher := &scriptedFetcher{answers: [][]domain.Slot{morning(), refreshed}}
	submitter := &fakeSubmitter{err: fmt.Errorf("bookingapi: 409: %w", ErrSlotTaken)}
	s := New(fetcher, submitter)
	toForm(t, s, slotAt(10, 0, true))

	_, err := s.Submit(context.Background(), contact, nil)

	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, StateTime, s.State())
	require.NoError(t, s.WaitSlots(context.Background()))

	v := s.View()
	assert.Nil(t, v.Selected)
	assert.Equal(t, refreshed, v.Slots)
	assert.Equal(t, 2, fetcher.callCount())
	assert.ErrorIs(t, s.SelectSlot(slotAt(10, 0, true)), ErrSlotUnavailable)
	require.NoError(t, s.SelectSlot(slotAt(9, 0, true)))
}

func TestSession_SubmitFailureStaysInForm(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("503 service unavailable")}
	s := New(&scriptedFetcher{answers: [][]domain.Slot{morning()}}, submitter)
	toForm(t, s, slotAt(9, 0, true))

	_, err := s.Submit(context.Background(), contact, nil)

	require.Error(t, err)
	v := s.View()
	assert.Equal(t, StateForm, v.State)
	require.Error(t, v.LastError)
	assert.Contains(t, v.LastError.Error(), "503")
	require.NotNil(t, v.Selected)

	// retry after a failure is allowed
	submitter.err = nil
	_, err = s.Submit(context.Background(), contact, nil)
	require.NoError(t, err)
	assert.Nil(t, s.View().LastError)
	assert.Equal(t, 2, submitter.calls)
}

func TestSession_DuplicateSubmitWhileInFlight(t *testing.T) {
	submitter := &fakeSubmitter{release: make(chan struct{}), started: make(chan struct{})}
	s := New(&scriptedFetcher{answers: [][]domain.Slot{morning()}}, submitter)
	toForm(t, s, slotAt(9, 0, true))

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), contact, nil)
		done <- err
	}()
	<-submitter.started

	_, err := s.Submit(context.Background(), contact, nil)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, s.Back(), ErrSubmitInFlight)
	assert.True(t, s.View().Submitting)

	close(submitter.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, StateConfirmation, s.State())
}

func TestSession_FetchErrorIsVisible(t *testing.T) {
	s := New(&scriptedFetcher{err: errors.New("timeout")}, &fakeSubmitter{})

	require.NoError(t, s.SelectDate(context.Background(), monday))
	err := s.WaitSlots(context.Background())

	require.Error(t, err)
	v := s.View()
	assert.False(t, v.Loading)
	assert.Error(t, v.FetchError)
	assert.Equal(t, StateTime, v.State)
	assert.ErrorIs(t, s.SelectSlot(slotAt(9, 0, true)), ErrSlotUnavailable)
}

func TestTransitionTable(t *testing.T) {
	_, ok := next(StateConfirmation, eventBack)
	assert.False(t, ok)

	to, ok := next(StateForm, eventSlotTaken)
	assert.True(t, ok)
	assert.Equal(t, StateTime, to)

	_, ok = next(StateCalendar, eventSelectSlot)
	assert.False(t, ok)

	assert.Equal(t, "confirmation", StateConfirmation.String())
}

func TestSession_FetchOutlivesCallerContext(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &scriptedFetcher{answers: [][]domain.Slot{morning()}, gates: map[int]chan struct{}{0: gate}}
	s := New(fetcher, &fakeSubmitter{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	require.NoError(t, s.SelectDate(ctx, monday))
	cancel()
	close(gate)

	require.NoError(t, s.WaitSlots(context.Background()))
	v := s.View()
	assert.NoError(t, v.FetchError)
	assert.Equal(t, morning(), v.Slots)
}

func TestSession_RefetchAfterConflictOutlivesSubmitContext(t *testing.T) {
	refreshed := []domain.Slot{slotAt(9, 0, true), slotAt(10, 0, false)}
	gate := make(chan struct{})
	fetcher := &scriptedFetcher{
		answers: [][]domain.Slot{morning(), refreshed},
		gates:   map[int]chan struct{}{1: gate},
	}
	s := New(fetcher, &fakeSubmitter{err: fmt.Errorf("bookingapi: 409: %w", ErrSlotTaken)})
	toForm(t, s, slotAt(10, 0, true))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Submit(ctx, contact, nil)
	cancel()
	close(gate)

	assert.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, s.WaitSlots(context.Background()))
	v := s.View()
	assert.Equal(t, StateTime, v.State)
	assert.Equal(t, refreshed, v.Slots)
}

func TestSession_BackCancelsPendingFetch(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	fetcher := &scriptedFetcher{answers: [][]domain.Slot{morning()}, gates: map[int]chan struct{}{0: gate}}
	s := New(fetcher, &fakeSubmitter{})

	require.NoError(t, s.SelectDate(context.Background(), monday))
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Back())

	// the gate is never opened, so only cancellation lets the fetch return
	require.Eventually(t, func() bool { return fetcher.returnedCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateCalendar, s.State())
	assert.Nil(t, s.View().Slots)
}
