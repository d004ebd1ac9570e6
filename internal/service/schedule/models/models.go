package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// LoadRequest запрос на загрузку календаря ресурса за диапазон дат
type LoadRequest struct {
	ResourceID        int64
	AppointmentTypeID int64
	From              time.Time // первая дата диапазона (включительно)
	To                time.Time // последняя дата диапазона (включительно)
}

// Calendar всё, что нужно для расчета слотов одного типа записи.
// Owner и Type.CustomAvailability содержат исключения только за запрошенный диапазон
type Calendar struct {
	Resource *domain.Resource
	Type     *domain.AppointmentType
	Location *time.Location
	Owner    domain.Availability
}

// Window окно бронирования ресурса
func (c *Calendar) Window() domain.BookingWindow {
	return c.Resource.Window()
}

// Day переносит календарную дату date в часовой пояс ресурса (полночь)
func (c *Calendar) Day(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, c.Location)
}
