package get_bookable_dates

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// CalendarLoader загружает расписание ресурса и тип записи
type CalendarLoader interface {
	Load(ctx context.Context, req *models.LoadRequest) (*models.Calendar, error)
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
