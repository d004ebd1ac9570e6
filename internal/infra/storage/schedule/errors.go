package schedule

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("schedule.repository: resource not found")

	// ErrAppointmentTypeNotFound возвращается, когда тип записи не найден у ресурса
	ErrAppointmentTypeNotFound = errors.New("schedule.repository: appointment type not found")

	// ErrDecodeSchedule возвращается, когда JSON расписания в БД не разбирается
	ErrDecodeSchedule = errors.New("schedule.repository: failed to decode schedule")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("schedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("schedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("schedule.repository: failed to scan row")
)
