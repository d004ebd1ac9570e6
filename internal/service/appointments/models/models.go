package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// UpdateStatusRequest запрос на смену статуса записи
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Response модели

// ContactResponse контакт записавшегося
type ContactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ReminderResponse отметка об отправленном напоминании
type ReminderResponse struct {
	Type   string    `json:"type"`
	SentAt time.Time `json:"sentAt"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID                int64              `json:"id"`
	ResourceID        int64              `json:"resourceId"`
	AppointmentTypeID int64              `json:"appointmentTypeId"`
	Start             time.Time          `json:"start"`
	End               time.Time          `json:"end"`
	Status            string             `json:"status"`
	Contact           ContactResponse    `json:"contact"`
	Notes             *string            `json:"notes,omitempty"`
	ConfirmationCode  string             `json:"confirmationCode"`
	Reminders         []ReminderResponse `json:"reminders"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                a.ID,
		ResourceID:        a.ResourceID,
		AppointmentTypeID: a.AppointmentTypeID,
		Start:             a.StartTime,
		End:               a.EndTime,
		Status:            string(a.Status),
		Contact: ContactResponse{
			Name:  a.Contact.Name,
			Email: a.Contact.Email,
			Phone: a.Contact.Phone,
		},
		Notes:            a.Notes,
		ConfirmationCode: a.ConfirmationCode,
		Reminders:        make([]ReminderResponse, 0, len(a.Reminders)),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}

	for _, r := range a.Reminders {
		resp.Reminders = append(resp.Reminders, ReminderResponse{Type: string(r.Type), SentAt: r.SentAt})
	}

	return resp
}
