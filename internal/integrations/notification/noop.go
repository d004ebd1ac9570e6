package notification

import "context"

// NoopGateway ничего не отправляет, только пишет в лог. Для локальной разработки
type NoopGateway struct {
	log Logger
}

func NewNoopGateway(log Logger) *NoopGateway {
	return &NoopGateway{log: log}
}

func (g *NoopGateway) Name() string {
	return "noop"
}

func (g *NoopGateway) Send(_ context.Context, to string, fields TemplateFields) error {
	if to == "" {
		return ErrEmptyAddress
	}
	g.log.Info("Noop reminder: to=%s, appointment_id=%d, type=%s", to, fields.AppointmentID, fields.ReminderType)
	return nil
}
