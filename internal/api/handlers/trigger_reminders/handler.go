package trigger_reminders

import (
	"context"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

type Handler struct {
	useCase SendRemindersUseCase
	logger  Logger
}

func NewHandler(useCase SendRemindersUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reminders/trigger
// Секрет проверяется middleware.TriggerAuth до вызова обработчика
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Обрыв соединения планировщиком не прерывает прогон, его ограничивает собственный бюджет
	ctx := context.WithoutCancel(r.Context())

	result, err := h.useCase.Execute(ctx)
	if err != nil {
		h.logger.Error("POST /reminders/trigger - Sweep failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /reminders/trigger - Sweep done: processed=%d, sent=%d, errors=%d",
		result.Processed, result.Sent, result.Errors)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
