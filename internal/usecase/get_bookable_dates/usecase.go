package get_bookable_dates

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/availability"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// UseCase отмечает в диапазоне дат те, на которые можно записаться.
// Занятость слотов не учитывается: дата доступна, если она в окне бронирования
// и в расписании на неё есть хотя бы один рабочий интервал
type UseCase struct {
	calendarLoader CalendarLoader
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(calendarLoader CalendarLoader, logger Logger) *UseCase {
	return &UseCase{
		calendarLoader: calendarLoader,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Execute выполняет use case
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetBookableDates: resource=%d, type=%d, from=%s, to=%s",
		req.ResourceID, req.AppointmentTypeID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetBookableDates: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Загружаем расписание с исключениями за весь диапазон
	cal, err := uc.calendarLoader.Load(ctx, &models.LoadRequest{
		ResourceID:        req.ResourceID,
		AppointmentTypeID: req.AppointmentTypeID,
		From:              req.From,
		To:                req.To,
	})
	if err != nil {
		switch {
		case errors.Is(err, scheduleService.ErrResourceNotFound):
			return nil, ErrResourceNotFound
		case errors.Is(err, scheduleService.ErrAppointmentTypeNotFound):
			return nil, ErrAppointmentTypeNotFound
		default:
			uc.logger.Error("GetBookableDates: failed to load calendar: %v", err)
			return nil, fmt.Errorf("%w: failed to load calendar: %v", ErrInternal, err)
		}
	}

	// 3. Проверяем каждую дату в поясе ресурса
	effective := availability.Effective(cal.Owner, cal.Type)
	from, to := cal.Day(req.From), cal.Day(req.To)

	dates := make([]Date, 0)
	bookable := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		ok := availability.IsDateBookable(d, effective, cal.Window(), now)
		if ok {
			bookable++
		}
		dates = append(dates, Date{Date: d, Bookable: ok})
	}

	uc.logger.Info("GetBookableDates: %d of %d dates bookable for resource=%d, type=%d",
		bookable, len(dates), req.ResourceID, req.AppointmentTypeID)

	return &Response{
		ResourceID:        req.ResourceID,
		AppointmentTypeID: req.AppointmentTypeID,
		Timezone:          cal.Location.String(),
		Dates:             dates,
	}, nil
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ResourceID <= 0 || req.AppointmentTypeID <= 0 {
		return fmt.Errorf("%w: resourceId and appointmentTypeId must be positive", ErrInvalidInput)
	}

	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}

	if req.To.Before(req.From) {
		return fmt.Errorf("%w: to is before from", ErrInvalidInput)
	}

	days := int(req.To.Sub(req.From).Hours()/24) + 1
	if days > domain.MaxBookableDatesRange {
		return fmt.Errorf("%w: %d days requested, at most %d allowed", ErrRangeTooLong, days, domain.MaxBookableDatesRange)
	}

	return nil
}
