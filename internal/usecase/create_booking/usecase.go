package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/availability"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

const (
	confirmationCodeLength = 10
	maxCodeAttempts        = 3
)

// errCodeCollision код подтверждения уже выдан другой записи
var errCodeCollision = errors.New("create_booking: confirmation code collision")

// UseCase use case для создания записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	calendarLoader  CalendarLoader
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	newCode         func() string
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	calendarLoader CalendarLoader,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		calendarLoader:  calendarLoader,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		newCode:         newConfirmationCode,
		logger:          logger,
	}
}

// Execute выполняет use case создания записи.
// Слот занимается в сериализуемой транзакции: проверка пересечений с блокировкой строк
// и условная вставка. Параллельная запись на тот же интервал получает ErrSlotTaken
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: resource=%d, type=%d, start=%s, end=%s",
		req.ResourceID, req.AppointmentTypeID, req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		uc.metrics.ObserveBooking(outcomeRejected)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Загружаем расписание. Диапазон с запасом в сутки: дата слота в поясе ресурса
	// может отличаться от даты в UTC
	cal, err := uc.calendarLoader.Load(ctx, &models.LoadRequest{
		ResourceID:        req.ResourceID,
		AppointmentTypeID: req.AppointmentTypeID,
		From:              req.Start.AddDate(0, 0, -1),
		To:                req.Start.AddDate(0, 0, 1),
	})
	if err != nil {
		switch {
		case errors.Is(err, scheduleService.ErrResourceNotFound):
			uc.logger.Warn("CreateBooking: resource id=%d not found", req.ResourceID)
			uc.metrics.ObserveBooking(outcomeRejected)
			return nil, ErrResourceNotFound
		case errors.Is(err, scheduleService.ErrAppointmentTypeNotFound):
			uc.logger.Warn("CreateBooking: appointment type id=%d not found", req.AppointmentTypeID)
			uc.metrics.ObserveBooking(outcomeRejected)
			return nil, ErrAppointmentTypeNotFound
		default:
			uc.logger.Error("CreateBooking: failed to load calendar: %v", err)
			uc.metrics.ObserveBooking(outcomeError)
			return nil, fmt.Errorf("%w: failed to load calendar: %v", ErrInternal, err)
		}
	}

	// 4. Интервал должен совпадать с предлагаемым слотом, который ещё не начался
	day := cal.Day(req.Start.In(cal.Location))
	slots := availability.SlotsFor(day, cal.Owner, cal.Type, cal.Window(), now, nil)
	slot, ok := availability.FindSlot(slots, req.Start, req.End)
	if !ok || !slot.Available {
		uc.logger.Warn("CreateBooking: interval [%s, %s) is not an open slot of resource=%d, type=%d",
			req.Start.Format(domain.TimeFormat), req.End.Format(domain.TimeFormat), req.ResourceID, req.AppointmentTypeID)
		uc.metrics.ObserveBooking(outcomeRejected)
		return nil, ErrSlotNotOffered
	}

	// 5. Занимаем слот в сериализуемой транзакции.
	// Совпадение кода подтверждения повторяется в новой транзакции с новым кодом
	var result *domain.Appointment
	for attempt := 1; ; attempt++ {
		result, err = uc.reserve(ctx, req, slot)
		if !errors.Is(err, errCodeCollision) {
			break
		}
		if attempt == maxCodeAttempts {
			uc.logger.Error("CreateBooking: confirmation code collided %d times in a row", attempt)
			err = fmt.Errorf("%w: could not generate a unique confirmation code", ErrInternal)
			break
		}
		uc.logger.Warn("CreateBooking: confirmation code collision, retrying (attempt %d)", attempt)
	}

	if err != nil {
		// Откат сериализуемой транзакции при фиксации (40001) - тоже конкуренция за слот
		if errors.Is(err, ErrSlotTaken) || appointmentRepo.IsConflict(err) {
			uc.metrics.ObserveBooking(outcomeConflict)
			return nil, ErrSlotTaken
		}
		if errors.Is(err, ErrInternal) {
			uc.metrics.ObserveBooking(outcomeError)
			return nil, err
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		uc.metrics.ObserveBooking(outcomeError)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	uc.metrics.ObserveBooking(outcomeCreated)
	uc.logger.Info("CreateBooking: successfully created appointment id=%d, code=%s", result.ID, result.ConfirmationCode)

	return &Response{
		AppointmentID:     result.ID,
		ResourceID:        result.ResourceID,
		AppointmentTypeID: result.AppointmentTypeID,
		ConfirmationCode:  result.ConfirmationCode,
		Start:             result.StartTime,
		End:               result.EndTime,
		Status:            string(result.Status),
		CreatedAt:         result.CreatedAt,
	}, nil
}

// reserve проверяет пересечения и создаёт запись в одной сериализуемой транзакции
func (uc *UseCase) reserve(ctx context.Context, req *Request, slot domain.Slot) (*domain.Appointment, error) {
	var result *domain.Appointment
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Пересекающиеся активные записи с блокировкой (FOR UPDATE)
		busy, err := uc.appointmentRepo.ListBooked(txCtx, req.ResourceID, slot.Interval())
		if err != nil {
			uc.logger.Error("CreateBooking: failed to list booked intervals: %v", err)
			return fmt.Errorf("%w: failed to list booked intervals: %v", ErrInternal, err)
		}

		if len(busy) > 0 {
			uc.logger.Warn("CreateBooking: slot %s of resource=%d overlaps %d active appointments",
				slot.Start.Format(domain.TimeFormat), req.ResourceID, len(busy))
			return ErrSlotTaken
		}

		// 2. Создаём запись. Exclusion-ограничение в БД страхует от гонки между проверкой и вставкой
		appointment := &domain.Appointment{
			ResourceID:        req.ResourceID,
			AppointmentTypeID: req.AppointmentTypeID,
			StartTime:         slot.Start,
			EndTime:           slot.End,
			Status:            domain.StatusScheduled,
			Contact:           normalizeContact(req.Contact),
			Notes:             req.Notes,
			ConfirmationCode:  uc.newCode(),
		}

		created, err := uc.appointmentRepo.Create(txCtx, appointment)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrDuplicateCode) {
				return errCodeCollision
			}
			if errors.Is(err, appointmentRepo.ErrSlotTaken) {
				uc.logger.Warn("CreateBooking: slot %s of resource=%d was taken concurrently",
					slot.Start.Format(domain.TimeFormat), req.ResourceID)
				return ErrSlotTaken
			}
			uc.logger.Error("CreateBooking: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	return result, err
}

// newConfirmationCode короткий код подтверждения из случайного UUID
func newConfirmationCode() string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return code[:confirmationCodeLength]
}
