package bookingapi

import "time"

// slotDTO слот из ответа available-slots
type slotDTO struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// availableSlotsResponse ответ GET .../available-slots
type availableSlotsResponse struct {
	Date              string    `json:"date"`
	ResourceID        int64     `json:"resourceId"`
	AppointmentTypeID int64     `json:"appointmentTypeId"`
	Timezone          string    `json:"timezone"`
	Slots             []slotDTO `json:"slots"`
}

type contactDTO struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// createBookingRequest тело POST /bookings
type createBookingRequest struct {
	ResourceID        int64      `json:"resourceId"`
	AppointmentTypeID int64      `json:"appointmentTypeId"`
	Start             time.Time  `json:"start"`
	End               time.Time  `json:"end"`
	Contact           contactDTO `json:"contact"`
	Notes             *string    `json:"notes,omitempty"`
}

// createBookingResponse ответ 201 на POST /bookings
type createBookingResponse struct {
	AppointmentID    int64     `json:"appointmentId"`
	ConfirmationCode string    `json:"confirmationCode"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Status           string    `json:"status"`
}

// ErrorResponse модель ошибки сервиса
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
