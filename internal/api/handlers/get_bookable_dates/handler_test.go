package get_bookable_dates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getBookableDates "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_bookable_dates"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubUseCase struct {
	got  *getBookableDates.Request
	resp *getBookableDates.Response
	err  error
}

func (s *stubUseCase) Execute(_ context.Context, req *getBookableDates.Request) (*getBookableDates.Response, error) {
	s.got = req
	return s.resp, s.err
}

func serve(uc GetBookableDatesUseCase, query string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/resources/{resourceId}/appointment-types/{typeId}/bookable-dates",
		NewHandler(uc, logger.NewNop()).Handle).Methods(http.MethodGet)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resources/7/appointment-types/3/bookable-dates"+query, nil))
	return w
}

func TestHandle_OK(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	uc := &stubUseCase{resp: &getBookableDates.Response{
		ResourceID:        7,
		AppointmentTypeID: 3,
		Timezone:          "UTC",
		Dates: []getBookableDates.Date{
			{Date: day, Bookable: true},
			{Date: day.AddDate(0, 0, 1), Bookable: false},
		},
	}}

	w := serve(uc, "?from=2024-03-04&to=2024-03-05")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-05", uc.got.To.Format("2006-01-02"))

	var body BookableDatesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []DateResponse{
		{Date: "2024-03-04", Bookable: true},
		{Date: "2024-03-05", Bookable: false},
	}, body.Dates)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "missing to", query: "?from=2024-03-04", wantStatus: http.StatusBadRequest, wantMsg: msgMissingRange},
		{name: "bad from", query: "?from=2024-13-01&to=2024-03-05", wantStatus: http.StatusBadRequest, wantMsg: msgInvalidDate},
		{name: "too long", query: "?from=2024-01-01&to=2024-12-31", err: getBookableDates.ErrRangeTooLong, wantStatus: http.StatusBadRequest, wantMsg: msgRangeTooLong},
		{name: "reversed", query: "?from=2024-03-05&to=2024-03-04", err: getBookableDates.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantMsg: msgInvalidRange},
		{name: "resource not found", query: "?from=2024-03-04&to=2024-03-05", err: getBookableDates.ErrResourceNotFound, wantStatus: http.StatusNotFound, wantMsg: msgResourceNotFound},
		{name: "type not found", query: "?from=2024-03-04&to=2024-03-05", err: getBookableDates.ErrAppointmentTypeNotFound, wantStatus: http.StatusNotFound, wantMsg: msgTypeNotFound},
		{name: "internal", query: "?from=2024-03-04&to=2024-03-05", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(&stubUseCase{err: tt.err}, tt.query)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantMsg)
			}
		})
	}
}
