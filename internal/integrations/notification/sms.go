package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SMSGateway отправляет напоминания через HTTP webhook SMS провайдера
type SMSGateway struct {
	url        string
	token      string
	httpClient *http.Client
	log        Logger
}

// NewSMSGateway создает SMS шлюз
func NewSMSGateway(url, token string, timeout time.Duration, log Logger) *SMSGateway {
	return &SMSGateway{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Name имя провайдера для логов
func (g *SMSGateway) Name() string {
	return "sms-webhook"
}

// Send отправляет SMS-напоминание на номер to
func (g *SMSGateway) Send(ctx context.Context, to string, fields TemplateFields) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrEmptyAddress
	}
	if g.url == "" {
		return ErrNotConfigured
	}

	text, err := RenderSMS(fields)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(smsPayload{To: to, Body: text})
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: webhook returned %d: %s", ErrDelivery, resp.StatusCode, string(body))
	}

	g.log.Info("Reminder sms sent: appointment_id=%d, type=%s", fields.AppointmentID, fields.ReminderType)
	return nil
}
