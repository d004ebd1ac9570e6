package create_booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
)

// ContactRequest контактные данные записывающегося
type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ResourceID        int64          `json:"resourceId"`
	AppointmentTypeID int64          `json:"appointmentTypeId"`
	Start             string         `json:"start"` // RFC3339, "2024-03-04T09:00:00+03:00"
	End               string         `json:"end"`
	Contact           ContactRequest `json:"contact"`
	Notes             *string        `json:"notes,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	AppointmentID    int64  `json:"appointmentId"`
	ConfirmationCode string `json:"confirmationCode"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Status           string `json:"status"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		ResourceID:        r.ResourceID,
		AppointmentTypeID: r.AppointmentTypeID,
		Start:             start,
		End:               end,
		Contact: domain.Contact{
			Name:  r.Contact.Name,
			Email: r.Contact.Email,
			Phone: r.Contact.Phone,
		},
		Notes: r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		AppointmentID:    resp.AppointmentID,
		ConfirmationCode: resp.ConfirmationCode,
		Start:            resp.Start.Format(time.RFC3339),
		End:              resp.End.Format(time.RFC3339),
		Status:           resp.Status,
	}
}
