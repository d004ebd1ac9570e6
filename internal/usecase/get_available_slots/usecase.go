package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/availability"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// UseCase use case для получения слотов на дату
type UseCase struct {
	calendarLoader  CalendarLoader
	appointmentRepo AppointmentRepository
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	calendarLoader CalendarLoader,
	appointmentRepo AppointmentRepository,
	logger Logger,
) *UseCase {
	return &UseCase{
		calendarLoader:  calendarLoader,
		appointmentRepo: appointmentRepo,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: resource=%d, type=%d, date=%s",
		req.ResourceID, req.AppointmentTypeID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Загружаем расписание с исключениями на эту дату
	cal, err := uc.calendarLoader.Load(ctx, &models.LoadRequest{
		ResourceID:        req.ResourceID,
		AppointmentTypeID: req.AppointmentTypeID,
		From:              req.Date,
		To:                req.Date,
	})
	if err != nil {
		return nil, uc.mapLoadError(err)
	}

	day := cal.Day(req.Date)
	response := &Response{
		Date:              day,
		ResourceID:        req.ResourceID,
		AppointmentTypeID: req.AppointmentTypeID,
		Timezone:          cal.Location.String(),
		DurationMinutes:   cal.Type.DurationMinutes,
		Slots:             []domain.Slot{},
	}

	// 4. Дата вне окна бронирования - пустой список без обращения к записям
	if !availability.WithinWindow(day, cal.Window(), now) {
		uc.logger.Info("GetAvailableSlots: date %s is outside booking window of resource=%d",
			day.Format(domain.DateFormat), req.ResourceID)
		return response, nil
	}

	// 5. Занятые интервалы за сутки в поясе ресурса
	busy, err := uc.appointmentRepo.ListBooked(ctx, req.ResourceID, domain.Interval{
		Start: day,
		End:   day.AddDate(0, 0, 1),
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list booked intervals for resource=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to list booked intervals: %v", ErrInternal, err)
	}

	// 6. Считаем слоты
	response.Slots = availability.SlotsFor(day, cal.Owner, cal.Type, cal.Window(), now, busy)

	uc.logger.Info("GetAvailableSlots: generated %d slots (%d busy intervals) for resource=%d, type=%d, date=%s",
		len(response.Slots), len(busy), req.ResourceID, req.AppointmentTypeID, day.Format(domain.DateFormat))

	return response, nil
}

func (uc *UseCase) mapLoadError(err error) error {
	switch {
	case errors.Is(err, scheduleService.ErrResourceNotFound):
		uc.logger.Warn("GetAvailableSlots: resource not found")
		return ErrResourceNotFound
	case errors.Is(err, scheduleService.ErrAppointmentTypeNotFound):
		uc.logger.Warn("GetAvailableSlots: appointment type not found")
		return ErrAppointmentTypeNotFound
	case errors.Is(err, scheduleService.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		uc.logger.Error("GetAvailableSlots: failed to load calendar: %v", err)
		return fmt.Errorf("%w: failed to load calendar: %v", ErrInternal, err)
	}
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resourceId must be positive", ErrInvalidInput)
	}

	if req.AppointmentTypeID <= 0 {
		return fmt.Errorf("%w: appointmentTypeId must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}
