package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// 2024-01-01 - понедельник
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fakeLoader struct {
	cal *models.Calendar
	err error
}

func (f *fakeLoader) Load(context.Context, *models.LoadRequest) (*models.Calendar, error) {
	return f.cal, f.err
}

// memAppointments хранилище с проверкой пересечений при вставке, как exclusion-ограничение
type memAppointments struct {
	mu          sync.Mutex
	items       []domain.Appointment
	createErr   error
	createCalls int
	nextID      int64
	// первые codeCollisions вставок отклоняются как повтор кода подтверждения
	codeCollisions int
	codes          []string
}

func (m *memAppointments) ListBooked(_ context.Context, _ int64, window domain.Interval) ([]domain.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Interval, 0)
	for _, a := range m.items {
		if a.IsActive() && a.Interval().Overlaps(window) {
			out = append(out, a.Interval())
		}
	}
	return out, nil
}

func (m *memAppointments) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	m.codes = append(m.codes, a.ConfirmationCode)
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.codeCollisions > 0 {
		m.codeCollisions--
		return nil, fmt.Errorf("%w: Create: unique violation", appointmentRepo.ErrDuplicateCode)
	}
	for _, existing := range m.items {
		if existing.IsActive() && existing.Interval().Overlaps(a.Interval()) {
			return nil, fmt.Errorf("%w: Create: exclusion violation", appointmentRepo.ErrSlotTaken)
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = monday
	m.items = append(m.items, *a)
	return a, nil
}

// serialTx выполняет транзакции строго по одной; commitErr имитирует ошибку фиксации
type serialTx struct {
	mu        sync.Mutex
	commitErr error
}

func (s *serialTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}
	return s.commitErr
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingMetrics) ObserveBooking(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func calendar() *models.Calendar {
	return &models.Calendar{
		Resource: &domain.Resource{ID: 1, BookingWindowDays: 14},
		Type:     &domain.AppointmentType{ID: 2, ResourceID: 1, DurationMinutes: 30},
		Location: time.UTC,
		Owner: domain.Availability{Weekly: domain.WeeklySchedule{
			Monday: domain.DaySchedule{Enabled: true, Ranges: []domain.TimeRange{
				{Start: types.TimeString("09:00"), End: types.TimeString("12:00")},
			}},
		}},
	}
}

type fixture struct {
	uc      *UseCase
	store   *memAppointments
	tx      *serialTx
	metrics *recordingMetrics
}

func newFixture(now time.Time) *fixture {
	f := &fixture{store: &memAppointments{}, tx: &serialTx{}, metrics: &recordingMetrics{}}
	f.uc = NewUseCase(f.store, &fakeLoader{cal: calendar()}, f.tx, f.metrics, logger.NewNop())
	f.uc.timeProvider = fixedTime{now}
	f.uc.newCode = func() string { return "ABC123DEF4" }
	return f
}

func validRequest() *Request {
	return &Request{
		ResourceID:        1,
		AppointmentTypeID: 2,
		Start:             monday.Add(10 * time.Hour),
		End:               monday.Add(10*time.Hour + 30*time.Minute),
		Contact:           domain.Contact{Name: "  Anna ", Email: " anna@example.com "},
		Notes:             ptr.Ptr("first visit"),
	}
}

func TestExecute_CreatesAppointment(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.AppointmentID)
	assert.Equal(t, "ABC123DEF4", resp.ConfirmationCode)
	assert.Equal(t, string(domain.StatusScheduled), resp.Status)
	assert.Equal(t, monday.Add(10*time.Hour), resp.Start)

	require.Len(t, f.store.items, 1)
	assert.Equal(t, "Anna", f.store.items[0].Contact.Name)
	assert.Equal(t, "anna@example.com", f.store.items[0].Contact.Email)
	assert.Equal(t, []string{outcomeCreated}, f.metrics.outcomes)
}

func TestExecute_RejectsIntervalThatIsNotASlot(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	req := validRequest()
	req.Start = monday.Add(10*time.Hour + 10*time.Minute)
	req.End = req.Start.Add(30 * time.Minute)

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrSlotNotOffered)
	assert.Equal(t, 0, f.store.createCalls)
}

func TestExecute_RejectsPastSlot(t *testing.T) {
	f := newFixture(monday.Add(10*time.Hour + 5*time.Minute))

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotNotOffered)
}

func TestExecute_BusySlot(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.store.items = []domain.Appointment{{
		ID:        9,
		StartTime: monday.Add(10 * time.Hour),
		EndTime:   monday.Add(10*time.Hour + 30*time.Minute),
		Status:    domain.StatusConfirmed,
	}}

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 0, f.store.createCalls)
	assert.Equal(t, []string{outcomeConflict}, f.metrics.outcomes)
}

func TestExecute_CancelledAppointmentFreesSlot(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.store.items = []domain.Appointment{{
		ID:        9,
		StartTime: monday.Add(10 * time.Hour),
		EndTime:   monday.Add(10*time.Hour + 30*time.Minute),
		Status:    domain.StatusCancelled,
	}}
	f.store.nextID = 9

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.AppointmentID)
}

func TestExecute_InsertConflictIsSlotTaken(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.store.createErr = fmt.Errorf("%w: Create: exclusion", appointmentRepo.ErrSlotTaken)

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestExecute_SerializationFailureOnCommitIsSlotTaken(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.tx.commitErr = fmt.Errorf("%w: commit: %w", txmanager.ErrTransaction, &pq.Error{Code: "40001"})

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, []string{outcomeConflict}, f.metrics.outcomes)
}

func TestExecute_CodeCollisionRetriesWithNewCode(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.store.codeCollisions = 1
	codes := []string{"AAAAAAAAAA", "BBBBBBBBBB"}
	f.uc.newCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBBB", resp.ConfirmationCode)
	assert.Equal(t, []string{"AAAAAAAAAA", "BBBBBBBBBB"}, f.store.codes)
	assert.Equal(t, []string{outcomeCreated}, f.metrics.outcomes)
}

func TestExecute_RepeatedCodeCollisionIsInternalNotSlotTaken(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.store.codeCollisions = maxCodeAttempts

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, maxCodeAttempts, f.store.createCalls)
	assert.Equal(t, []string{outcomeError}, f.metrics.outcomes)
}

func TestExecute_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	f.store.createErr = errors.New("connection reset")

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, []string{outcomeError}, f.metrics.outcomes)
}

func TestExecute_LoaderErrors(t *testing.T) {
	tests := []struct {
		err     error
		wantErr error
	}{
		{err: scheduleService.ErrResourceNotFound, wantErr: ErrResourceNotFound},
		{err: scheduleService.ErrAppointmentTypeNotFound, wantErr: ErrAppointmentTypeNotFound},
		{err: errors.New("boom"), wantErr: ErrInternal},
	}

	for _, tt := range tests {
		f := newFixture(monday.Add(-time.Hour))
		f.uc.calendarLoader = &fakeLoader{err: tt.err}

		_, err := f.uc.Execute(context.Background(), validRequest())
		assert.ErrorIs(t, err, tt.wantErr)
	}
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{name: "no resource", mutate: func(r *Request) { r.ResourceID = 0 }, wantErr: ErrInvalidInput},
		{name: "end before start", mutate: func(r *Request) { r.End = r.Start.Add(-time.Minute) }, wantErr: ErrInvalidInput},
		{name: "notes too long", mutate: func(r *Request) { r.Notes = ptr.Ptr(strings.Repeat("a", domain.MaxNotesLength+1)) }, wantErr: ErrInvalidInput},
		{name: "blank name", mutate: func(r *Request) { r.Contact.Name = "   " }, wantErr: ErrInvalidContact},
		{name: "no channel", mutate: func(r *Request) { r.Contact.Email = ""; r.Contact.Phone = "" }, wantErr: ErrInvalidContact},
		{name: "bad email", mutate: func(r *Request) { r.Contact.Email = "not-an-email" }, wantErr: ErrInvalidContact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(monday.Add(-time.Hour))
			req := validRequest()
			tt.mutate(req)

			_, err := f.uc.Execute(context.Background(), req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []string{outcomeRejected}, f.metrics.outcomes)
		})
	}
}

func TestExecute_PhoneOnlyContact(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))
	req := validRequest()
	req.Contact = domain.Contact{Name: "Boris", Phone: "+10000000000"}

	_, err := f.uc.Execute(context.Background(), req)

	require.NoError(t, err)
}

func TestExecute_ConcurrentBookingsOfSameSlot(t *testing.T) {
	f := newFixture(monday.Add(-time.Hour))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Execute(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	created, taken := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrSlotTaken):
			taken++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, taken)
	assert.Len(t, f.store.items, 1)
}

func TestNewConfirmationCode(t *testing.T) {
	a, b := newConfirmationCode(), newConfirmationCode()

	assert.Len(t, a, confirmationCodeLength)
	assert.Equal(t, strings.ToUpper(a), a)
	assert.NotEqual(t, a, b)
}
