package create_booking

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrAppointmentTypeNotFound возвращается, когда тип записи не найден у ресурса
	ErrAppointmentTypeNotFound = errors.New("create_booking: appointment type not found")

	// ErrSlotNotOffered возвращается, когда интервал не совпадает ни с одним слотом расписания
	// или слот уже в прошлом
	ErrSlotNotOffered = errors.New("create_booking: slot is not offered")

	// ErrSlotTaken возвращается, когда слот занят другой записью
	ErrSlotTaken = errors.New("create_booking: slot already taken")

	// ErrInvalidContact возвращается при некорректных контактных данных
	ErrInvalidContact = errors.New("create_booking: invalid contact")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
