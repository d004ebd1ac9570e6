package appointment

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrSlotTaken возвращается, когда интервал уже занят другой активной записью
	ErrSlotTaken = errors.New("appointment.repository: slot already taken")

	// ErrDuplicateCode возвращается, когда код подтверждения уже выдан другой записи
	ErrDuplicateCode = errors.New("appointment.repository: confirmation code already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)

// SQLSTATE коды PostgreSQL
const (
	pqExclusionViolation   = "23P01"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
)

// Имена ограничений из migrations/001_init.sql
const (
	constraintNoOverlap        = "appointments_no_overlap"
	constraintConfirmationCode = "appointments_confirmation_code_key"
)

// isSlotConflict возвращает true, если слот заняли параллельно: сработало
// exclusion-ограничение пересечений или сериализуемая транзакция откатилась
func isSlotConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case pqSerializationFailure:
		return true
	case pqExclusionViolation:
		return pqErr.Constraint == constraintNoOverlap
	default:
		return false
	}
}

// isDuplicateCode возвращает true при совпадении кода подтверждения
func isDuplicateCode(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraintConfirmationCode
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

// IsConflict проверяет, что ошибка (в том числе обёрнутая транзакцией) означает занятый слот
func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken) || isSlotConflict(err)
}
