package get_bookable_dates

import (
	"context"

	getBookableDates "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_bookable_dates"
)

type GetBookableDatesUseCase interface {
	Execute(ctx context.Context, req *getBookableDates.Request) (*getBookableDates.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
