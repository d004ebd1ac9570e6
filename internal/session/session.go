// Package session implements the client side of the booking flow:
// calendar, time, form and confirmation stages driven by an explicit transition table.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Session is one visitor's booking flow. It is safe for concurrent use; every
// operation validates the move against the transition table first.
type Session struct {
	fetcher   SlotFetcher
	submitter BookingSubmitter

	mu         sync.Mutex
	state      State
	date       time.Time
	slots      []domain.Slot
	loading    bool
	fetchErr   error
	fetchSeq   uint64
	fetchDone  chan struct{}
	stopFetch  context.CancelFunc
	selected   *domain.Slot
	submitting bool
	lastErr    error
	confirmed  *Confirmation
}

// View is an immutable snapshot for rendering
type View struct {
	State        State
	Date         time.Time
	Loading      bool
	Slots        []domain.Slot
	FetchError   error
	Selected     *domain.Slot
	Submitting   bool
	LastError    error
	Confirmation *Confirmation
}

// New creates a session in the calendar state
func New(fetcher SlotFetcher, submitter BookingSubmitter) *Session {
	return &Session{
		fetcher:   fetcher,
		submitter: submitter,
		state:     StateCalendar,
	}
}

// SelectDate moves calendar to time and starts fetching the slots of d in the background.
// The time state reports Loading until the fetch finishes.
func (s *Session) SelectDate(ctx context.Context, d time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.apply(eventSelectDate); err != nil {
		return err
	}
	s.date = d
	s.selected = nil
	s.startFetchLocked(ctx)
	return nil
}

// WaitSlots blocks until the latest slot fetch finishes and returns its error
func (s *Session) WaitSlots(ctx context.Context) error {
	for {
		s.mu.Lock()
		done := s.fetchDone
		if done == nil {
			err := s.fetchErr
			s.mu.Unlock()
			return err
		}
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		s.mu.Lock()
		superseded := s.fetchDone != nil && s.fetchDone != done
		err := s.fetchErr
		s.mu.Unlock()
		if !superseded {
			return err
		}
	}
}

// SelectSlot moves time to form. The slot must be one of the loaded slots and available.
func (s *Session) SelectSlot(slot domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := next(s.state, eventSelectSlot); !ok {
		return s.illegal(eventSelectSlot)
	}
	if s.loading {
		return ErrSlotsLoading
	}

	found := false
	for _, candidate := range s.slots {
		if candidate.Start.Equal(slot.Start) && candidate.End.Equal(slot.End) {
			if !candidate.Available {
				return fmt.Errorf("%w: %s is booked or in the past", ErrSlotUnavailable, slot.Start.Format(time.RFC3339))
			}
			slot = candidate
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s is not offered for this date", ErrSlotUnavailable, slot.Start.Format(time.RFC3339))
	}

	if err := s.apply(eventSelectSlot); err != nil {
		return err
	}
	s.selected = &slot
	s.lastErr = nil
	return nil
}

// Submit issues exactly one booking call for the selected slot.
// On success the session moves to confirmation. When the slot was taken meanwhile the
// session goes back to time, drops the selection, re-fetches slots and returns ErrSlotTaken.
// Any other failure keeps the session in form with LastError set.
func (s *Session) Submit(ctx context.Context, contact domain.Contact, notes *string) (*Confirmation, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if err := s.apply(eventSubmit); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.submitting = true
	s.lastErr = nil
	req := BookingRequest{
		Start:   s.selected.Start,
		End:     s.selected.End,
		Contact: contact,
		Notes:   notes,
	}
	s.mu.Unlock()

	confirmation, err := s.submitter.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	switch {
	case err == nil:
		_ = s.apply(eventSubmitted)
		if confirmation == nil {
			confirmation = &Confirmation{Start: req.Start, End: req.End}
		}
		c := *confirmation
		s.confirmed = &c
		return &c, nil
	case errors.Is(err, ErrSlotTaken):
		_ = s.apply(eventSlotTaken)
		s.selected = nil
		s.lastErr = err
		s.startFetchLocked(ctx)
		return nil, err
	default:
		s.lastErr = err
		return nil, err
	}
}

// Back returns to the previous stage. time to calendar discards the date, slots and
// selection; form to time keeps the loaded slots.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInFlight
	}

	from := s.state
	if err := s.apply(eventBack); err != nil {
		return err
	}

	s.selected = nil
	s.lastErr = nil
	if from == StateTime {
		// a fetch still in flight must not fill the calendar state
		s.cancelFetchLocked()
		s.fetchSeq++
		s.fetchDone = nil
		s.date = time.Time{}
		s.slots = nil
		s.loading = false
		s.fetchErr = nil
	}
	return nil
}

// State returns the current stage
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns a snapshot of the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:      s.state,
		Date:       s.date,
		Loading:    s.loading,
		FetchError: s.fetchErr,
		Submitting: s.submitting,
		LastError:  s.lastErr,
	}
	if s.slots != nil {
		v.Slots = append([]domain.Slot(nil), s.slots...)
	}
	if s.selected != nil {
		sel := *s.selected
		v.Selected = &sel
	}
	if s.confirmed != nil {
		c := *s.confirmed
		v.Confirmation = &c
	}
	return v
}

func (s *Session) apply(e event) error {
	to, ok := next(s.state, e)
	if !ok {
		return s.illegal(e)
	}
	s.state = to
	return nil
}

func (s *Session) illegal(e event) error {
	return fmt.Errorf("%w: %s in state %s", ErrIllegalTransition, e, s.state)
}

// startFetchLocked starts a new fetch for s.date; earlier fetches become stale and are cancelled.
// The fetch keeps ctx values but not its cancellation; only the session cancels it.
func (s *Session) startFetchLocked(ctx context.Context) {
	s.cancelFetchLocked()
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopFetch = cancel

	s.fetchSeq++
	seq := s.fetchSeq
	date := s.date
	done := make(chan struct{})

	s.fetchDone = done
	s.loading = true
	s.slots = nil
	s.fetchErr = nil

	go func() {
		defer close(done)
		defer cancel()

		slots, err := s.fetcher.FetchSlots(fetchCtx, date)

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.fetchSeq {
			return
		}
		s.loading = false
		s.fetchErr = err
		if err == nil {
			s.slots = slots
		}
	}()
}

func (s *Session) cancelFetchLocked() {
	if s.stopFetch != nil {
		s.stopFetch()
		s.stopFetch = nil
	}
}
