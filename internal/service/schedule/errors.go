package schedule

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("resource not found")

	// ErrAppointmentTypeNotFound возвращается, когда тип записи не найден у ресурса
	ErrAppointmentTypeNotFound = errors.New("appointment type not found")

	// ErrInvalidTimezone возвращается, когда у ресурса неизвестный часовой пояс
	ErrInvalidTimezone = errors.New("invalid resource timezone")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
