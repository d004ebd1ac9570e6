package bookingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/session"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

var slotStart = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 7, 3, 2*time.Second, logger.NewNop())
}

func TestClient_FetchSlots(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/resources/7/appointment-types/3/available-slots", r.URL.Path)
		assert.Equal(t, "2024-03-04", r.URL.Query().Get("date"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(availableSlotsResponse{
			Date:     "2024-03-04",
			Timezone: "UTC",
			Slots: []slotDTO{
				{Start: slotStart, End: slotStart.Add(30 * time.Minute), Available: true},
				{Start: slotStart.Add(30 * time.Minute), End: slotStart.Add(time.Hour), Available: false},
			},
		})
	})

	slots, err := c.FetchSlots(context.Background(), slotStart)

	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Start.Equal(slotStart))
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
}

func TestClient_FetchSlots_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"code":404,"message":"ресурс не найден"}`, wantErr: ErrRejected},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `rate limit exceeded`, wantErr: ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantErr: ErrInvalidResponse},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.FetchSlots(context.Background(), slotStart)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Submit(t *testing.T) {
	notes := "first visit"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/bookings", r.URL.Path)

		var req createBookingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.ResourceID)
		assert.Equal(t, int64(3), req.AppointmentTypeID)
		assert.Equal(t, "Anna", req.Contact.Name)
		assert.Empty(t, req.Contact.Phone)
		if assert.NotNil(t, req.Notes) {
			assert.Equal(t, notes, *req.Notes)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createBookingResponse{
			AppointmentID:    99,
			ConfirmationCode: "AB12CD34EF",
			Start:            req.Start,
			End:              req.End,
			Status:           "scheduled",
		})
	})

	conf, err := c.Submit(context.Background(), session.BookingRequest{
		Start:   slotStart,
		End:     slotStart.Add(30 * time.Minute),
		Contact: domain.Contact{Name: "Anna", Email: "anna@example.com"},
		Notes:   &notes,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(99), conf.AppointmentID)
	assert.Equal(t, "AB12CD34EF", conf.ConfirmationCode)
	assert.True(t, conf.Start.Equal(slotStart))
}

func TestClient_Submit_ConflictIsSlotTaken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":409,"message":"слот уже занят"}`))
	})

	_, err := c.Submit(context.Background(), session.BookingRequest{
		Start:   slotStart,
		End:     slotStart.Add(30 * time.Minute),
		Contact: domain.Contact{Name: "Anna", Email: "anna@example.com"},
	})

	require.ErrorIs(t, err, session.ErrSlotTaken)
	assert.Contains(t, err.Error(), "слот уже занят")
}

func TestClient_Submit_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"message":"некорректные контактные данные"}`))
	})

	_, err := c.Submit(context.Background(), session.BookingRequest{Start: slotStart, End: slotStart.Add(time.Hour)})

	assert.ErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, session.ErrSlotTaken)
}

// Клиент вместе с сессией: конфликт возвращает сессию к выбору времени
func TestClient_DrivesSession(t *testing.T) {
	var fetches atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			n := fetches.Add(1)
			_ = json.NewEncoder(w).Encode(availableSlotsResponse{Slots: []slotDTO{
				{Start: slotStart, End: slotStart.Add(30 * time.Minute), Available: n == 1},
			}})
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
		}
	})

	s := session.New(c, c)
	ctx := context.Background()
	require.NoError(t, s.SelectDate(ctx, slotStart))
	require.NoError(t, s.WaitSlots(ctx))
	require.NoError(t, s.SelectSlot(domain.Slot{Start: slotStart, End: slotStart.Add(30 * time.Minute)}))

	_, err := s.Submit(ctx, domain.Contact{Name: "Anna", Email: "anna@example.com"}, nil)
	require.ErrorIs(t, err, session.ErrSlotTaken)
	require.NoError(t, s.WaitSlots(ctx))

	v := s.View()
	assert.Equal(t, session.StateTime, v.State)
	require.Len(t, v.Slots, 1)
	assert.False(t, v.Slots[0].Available)
}
