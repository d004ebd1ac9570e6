package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ScheduleRepository интерфейс хранилища расписаний
type ScheduleRepository interface {
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	GetAppointmentType(ctx context.Context, resourceID, typeID int64) (*domain.AppointmentType, error)
	ListOverrides(ctx context.Context, resourceID int64, typeID *int64, from, to time.Time) ([]domain.DateOverride, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
