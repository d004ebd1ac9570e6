package trigger_reminders

import sendReminders "github.com/m04kA/SMC-AppointmentService/internal/usecase/send_reminders"

// DetailResponse результат по одной паре (запись, тип напоминания)
type DetailResponse struct {
	AppointmentID int64  `json:"appointmentId,omitempty"`
	ReminderType  string `json:"reminderType"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// SummaryResponse HTTP response model
type SummaryResponse struct {
	Processed int              `json:"processed"`
	Sent      int              `json:"sent"`
	Errors    int              `json:"errors"`
	Details   []DetailResponse `json:"details"`
}

// FromUseCaseResponse конвертирует сводку прогона в HTTP response
func FromUseCaseResponse(resp *sendReminders.Response) *SummaryResponse {
	details := make([]DetailResponse, 0, len(resp.Details))
	for _, d := range resp.Details {
		details = append(details, DetailResponse{
			AppointmentID: d.AppointmentID,
			ReminderType:  string(d.ReminderType),
			Status:        string(d.Status),
			Error:         d.Error,
		})
	}

	return &SummaryResponse{
		Processed: resp.Processed,
		Sent:      resp.Sent,
		Errors:    resp.Errors,
		Details:   details,
	}
}
