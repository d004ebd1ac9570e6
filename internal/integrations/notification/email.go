package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-gomail/gomail"
)

// mailSender отправляет подготовленные письма. *gomail.Dialer удовлетворяет интерфейсу
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// defaultSMTPTimeout ограничивает весь SMTP обмен одного письма
const defaultSMTPTimeout = 30 * time.Second

// EmailGateway отправляет напоминания по SMTP
type EmailGateway struct {
	from    string
	sender  mailSender
	timeout time.Duration
	log     Logger
}

// NewEmailGateway создает SMTP шлюз. timeout <= 0 означает defaultSMTPTimeout
func NewEmailGateway(host string, port int, username, password, from string, timeout time.Duration, log Logger) *EmailGateway {
	return &EmailGateway{
		from:    from,
		sender:  gomail.NewDialer(host, port, username, password),
		timeout: timeout,
		log:     log,
	}
}

// Name имя провайдера для логов
func (g *EmailGateway) Name() string {
	return "smtp"
}

// Send отправляет письмо-напоминание на адрес to.
// gomail не принимает context и не ставит дедлайн на обмен с сервером, поэтому отправка
// ждётся не дольше timeout и отмены ctx. Зависшая отправка дорабатывает в фоне, а напоминание
// считается неотправленным и повторяется следующим прогоном
func (g *EmailGateway) Send(ctx context.Context, to string, fields TemplateFields) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrEmptyAddress
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	msg, err := Render(fields)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	timeout := g.timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() {
		done <- g.sender.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: smtp: %v", ErrDelivery, err)
		}
	case <-timer.C:
		g.log.Warn("Reminder email timed out after %s: appointment_id=%d", timeout, fields.AppointmentID)
		return fmt.Errorf("%w: smtp: no answer within %s", ErrDelivery, timeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDelivery, ctx.Err())
	}

	g.log.Info("Reminder email sent: appointment_id=%d, type=%s", fields.AppointmentID, fields.ReminderType)
	return nil
}
