package get_bookable_dates

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getBookableDates "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_bookable_dates"
)

// DateResponse HTTP модель одной даты календаря
type DateResponse struct {
	Date     string `json:"date"`
	Bookable bool   `json:"bookable"`
}

// BookableDatesResponse HTTP response model
type BookableDatesResponse struct {
	ResourceID        int64          `json:"resourceId"`
	AppointmentTypeID int64          `json:"appointmentTypeId"`
	Timezone          string         `json:"timezone"`
	Dates             []DateResponse `json:"dates"`
}

// ToUseCaseRequest конвертирует параметры запроса в модель use case
func ToUseCaseRequest(resourceID, appointmentTypeID int64, fromStr, toStr string) (*getBookableDates.Request, error) {
	from, err := time.Parse(domain.DateFormat, fromStr)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(domain.DateFormat, toStr)
	if err != nil {
		return nil, err
	}

	return &getBookableDates.Request{
		ResourceID:        resourceID,
		AppointmentTypeID: appointmentTypeID,
		From:              from,
		To:                to,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getBookableDates.Response) *BookableDatesResponse {
	dates := make([]DateResponse, 0, len(resp.Dates))
	for _, d := range resp.Dates {
		dates = append(dates, DateResponse{
			Date:     d.Date.Format(domain.DateFormat),
			Bookable: d.Bookable,
		})
	}

	return &BookableDatesResponse{
		ResourceID:        resp.ResourceID,
		AppointmentTypeID: resp.AppointmentTypeID,
		Timezone:          resp.Timezone,
		Dates:             dates,
	}
}
