package send_reminders

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache/claim"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// AppointmentRepository интерфейс хранилища записей
type AppointmentRepository interface {
	FindPending(ctx context.Context, statuses []domain.AppointmentStatus, window domain.Interval) ([]*domain.Appointment, error)
	// AppendReminderIfAbsent должен быть условной атомарной записью:
	// из нескольких параллельных вызовов с одинаковыми (id, type) true получает ровно один
	AppendReminderIfAbsent(ctx context.Context, appointmentID int64, reminderType domain.ReminderType, sentAt time.Time) (bool, error)
}

// ResourceRepository нужен только для часового пояса в тексте напоминания
type ResourceRepository interface {
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
}

// NotificationGateway отправляет напоминание. Повторов не делает
type NotificationGateway interface {
	Send(ctx context.Context, to string, fields notification.TemplateFields) error
}

// Claimer best-effort блокировка отправки между параллельными прогонами
type Claimer interface {
	Claim(ctx context.Context, appointmentID int64, reminderType domain.ReminderType) (claim.ReleaseFunc, bool, error)
}

// Metrics метрики рассылки
type Metrics interface {
	ObserveReminder(reminderType, status string)
	ObserveSweep(seconds float64)
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

type noopMetrics struct{}

func (noopMetrics) ObserveReminder(string, string) {}
func (noopMetrics) ObserveSweep(float64)           {}
