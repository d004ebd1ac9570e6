package get_bookable_dates

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getBookableDates "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_bookable_dates"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidTypeID     = "некорректный ID типа записи"
	msgMissingRange      = "параметры from и to обязательны"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgRangeTooLong      = "слишком длинный диапазон дат"
	msgInvalidRange      = "некорректный диапазон дат"
	msgResourceNotFound  = "ресурс не найден"
	msgTypeNotFound      = "тип записи не найден"
)

type Handler struct {
	useCase GetBookableDatesUseCase
	logger  Logger
}

func NewHandler(useCase GetBookableDatesUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/appointment-types/{typeId}/bookable-dates
// Query params: from, to (required, YYYY-MM-DD, включительно)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resourceID, err := handlers.PathInt64(r, "resourceId")
	if err != nil {
		h.logger.Warn("GET /bookable-dates - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	typeID, err := handlers.PathInt64(r, "typeId")
	if err != nil {
		h.logger.Warn("GET /bookable-dates - Invalid appointment type ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTypeID)
		return
	}

	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr == "" || toStr == "" {
		h.logger.Warn("GET /bookable-dates - Missing range: from=%q, to=%q", fromStr, toStr)
		handlers.RespondBadRequest(w, msgMissingRange)
		return
	}

	useCaseReq, err := ToUseCaseRequest(resourceID, typeID, fromStr, toStr)
	if err != nil {
		h.logger.Warn("GET /bookable-dates - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getBookableDates.ErrRangeTooLong):
			h.logger.Warn("GET /bookable-dates - Range too long: from=%s, to=%s", fromStr, toStr)
			handlers.RespondBadRequest(w, msgRangeTooLong)

		case errors.Is(err, getBookableDates.ErrInvalidInput):
			h.logger.Warn("GET /bookable-dates - Invalid range: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		case errors.Is(err, getBookableDates.ErrResourceNotFound):
			h.logger.Warn("GET /bookable-dates - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, getBookableDates.ErrAppointmentTypeNotFound):
			h.logger.Warn("GET /bookable-dates - Appointment type not found: resource_id=%d, type_id=%d", resourceID, typeID)
			handlers.RespondNotFound(w, msgTypeNotFound)

		default:
			h.logger.Error("GET /bookable-dates - Failed to get dates: resource_id=%d, type_id=%d, error=%v",
				resourceID, typeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookable-dates - Dates retrieved: resource_id=%d, type_id=%d, from=%s, to=%s",
		resourceID, typeID, fromStr, toStr)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
