package create_booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на создание записи
type Request struct {
	ResourceID        int64          // ID ресурса
	AppointmentTypeID int64          // ID типа записи
	Start             time.Time      // Начало выбранного слота
	End               time.Time      // Конец выбранного слота
	Contact           domain.Contact // Контакт записавшегося
	Notes             *string        // Комментарий (опционально)
}

// Response модель ответа после создания записи
type Response struct {
	AppointmentID     int64
	ResourceID        int64
	AppointmentTypeID int64
	ConfirmationCode  string
	Start             time.Time
	End               time.Time
	Status            string
	CreatedAt         time.Time
}

// Исходы попытки бронирования для метрик
const (
	outcomeCreated  = "created"
	outcomeConflict = "conflict"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)
