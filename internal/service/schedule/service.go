package schedule

import (
	"context"
	"errors"
	"fmt"

	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// Service собирает расписание ресурса, тип записи и исключения по датам
type Service struct {
	scheduleRepo ScheduleRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(scheduleRepo ScheduleRepository, logger Logger) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// Load загружает календарь для типа записи за диапазон дат [From, To].
// Если у типа собственное расписание, его исключения загружаются отдельно и
// исключения ресурса на слоты этого типа не влияют
func (s *Service) Load(ctx context.Context, req *models.LoadRequest) (*models.Calendar, error) {
	if req.ResourceID <= 0 || req.AppointmentTypeID <= 0 {
		return nil, fmt.Errorf("%w: resourceId and appointmentTypeId must be positive", ErrInvalidInput)
	}
	if req.To.Before(req.From) {
		return nil, fmt.Errorf("%w: range end is before range start", ErrInvalidInput)
	}

	// 1. Ресурс
	resource, err := s.scheduleRepo.GetResource(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrResourceNotFound) {
			s.logger.Warn("Load: resource id=%d not found", req.ResourceID)
			return nil, ErrResourceNotFound
		}
		s.logger.Error("Load: failed to get resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: Load - get resource: %v", ErrInternal, err)
	}

	loc, err := resource.Location()
	if err != nil {
		s.logger.Error("Load: resource id=%d has invalid timezone %q: %v", resource.ID, resource.Timezone, err)
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, resource.Timezone)
	}

	// 2. Тип записи
	apptType, err := s.scheduleRepo.GetAppointmentType(ctx, req.ResourceID, req.AppointmentTypeID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrAppointmentTypeNotFound) {
			s.logger.Warn("Load: appointment type id=%d not found for resource id=%d", req.AppointmentTypeID, req.ResourceID)
			return nil, ErrAppointmentTypeNotFound
		}
		s.logger.Error("Load: failed to get appointment type id=%d: %v", req.AppointmentTypeID, err)
		return nil, fmt.Errorf("%w: Load - get appointment type: %v", ErrInternal, err)
	}

	// 3. Исключения: собственные у типа, иначе ресурса
	if apptType.CustomAvailability != nil {
		overrides, err := s.scheduleRepo.ListOverrides(ctx, resource.ID, &apptType.ID, req.From, req.To)
		if err != nil {
			s.logger.Error("Load: failed to list overrides for type id=%d: %v", apptType.ID, err)
			return nil, fmt.Errorf("%w: Load - list type overrides: %v", ErrInternal, err)
		}
		apptType.CustomAvailability.Overrides = overrides
	} else {
		overrides, err := s.scheduleRepo.ListOverrides(ctx, resource.ID, nil, req.From, req.To)
		if err != nil {
			s.logger.Error("Load: failed to list overrides for resource id=%d: %v", resource.ID, err)
			return nil, fmt.Errorf("%w: Load - list resource overrides: %v", ErrInternal, err)
		}
		resource.Availability.Overrides = overrides
	}

	return &models.Calendar{
		Resource: resource,
		Type:     apptType,
		Location: loc,
		Owner:    resource.Availability,
	}, nil
}

