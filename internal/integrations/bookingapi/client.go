// Package bookingapi HTTP клиент публичного API записи для клиентской сессии бронирования
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/session"
)

var (
	_ session.SlotFetcher      = (*Client)(nil)
	_ session.BookingSubmitter = (*Client)(nil)
)

// Client клиент API записи, привязанный к одному ресурсу и типу приёма
type Client struct {
	baseURL           string
	resourceID        int64
	appointmentTypeID int64
	httpClient        *http.Client
	log               Logger
}

// NewClient создает новый экземпляр клиента API записи
func NewClient(baseURL string, resourceID, appointmentTypeID int64, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		resourceID:        resourceID,
		appointmentTypeID: appointmentTypeID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// FetchSlots получает слоты на дату date
func (c *Client) FetchSlots(ctx context.Context, date time.Time) ([]domain.Slot, error) {
	u := fmt.Sprintf("%s/api/v1/resources/%d/appointment-types/%d/available-slots?date=%s",
		c.baseURL, c.resourceID, c.appointmentTypeID, url.QueryEscape(date.Format(domain.DateFormat)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var body availableSlotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	slots := make([]domain.Slot, 0, len(body.Slots))
	for _, s := range body.Slots {
		slots = append(slots, domain.Slot{Start: s.Start, End: s.End, Available: s.Available})
	}

	c.log.Info("Fetched %d slots for date=%s resource_id=%d", len(slots), body.Date, c.resourceID)
	return slots, nil
}

// Submit создает запись. Ответ 409 возвращается как session.ErrSlotTaken
func (c *Client) Submit(ctx context.Context, br session.BookingRequest) (*session.Confirmation, error) {
	payload, err := json.Marshal(createBookingRequest{
		ResourceID:        c.resourceID,
		AppointmentTypeID: c.appointmentTypeID,
		Start:             br.Start,
		End:               br.End,
		Contact: contactDTO{
			Name:  br.Contact.Name,
			Email: br.Contact.Email,
			Phone: br.Contact.Phone,
		},
		Notes: br.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/bookings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		// Продолжаем обработку
	case http.StatusConflict:
		c.log.Warn("Slot %s is already taken", br.Start.Format(time.RFC3339))
		return nil, fmt.Errorf("bookingapi: %s: %w", errorMessage(resp), session.ErrSlotTaken)
	default:
		return nil, c.statusError(resp)
	}

	var created createBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.log.Info("Appointment created: appointment_id=%d, code=%s", created.AppointmentID, created.ConfirmationCode)
	return &session.Confirmation{
		AppointmentID:    created.AppointmentID,
		ConfirmationCode: created.ConfirmationCode,
		Start:            created.Start,
		End:              created.End,
	}, nil
}

func (c *Client) statusError(resp *http.Response) error {
	msg := errorMessage(resp)
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %d: %s", ErrRejected, resp.StatusCode, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	default:
		c.log.Error("Unexpected status from booking API: %d: %s", resp.StatusCode, msg)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, msg)
	}
}

// errorMessage достает message из тела ошибки, иначе возвращает тело как есть
func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(body))
}
