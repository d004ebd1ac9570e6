package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// CalendarLoader загружает расписание ресурса и тип записи
type CalendarLoader interface {
	Load(ctx context.Context, req *models.LoadRequest) (*models.Calendar, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// ListBooked возвращает интервалы активных записей ресурса, пересекающие окно
	ListBooked(ctx context.Context, resourceID int64, window domain.Interval) ([]domain.Interval, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
