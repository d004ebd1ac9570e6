package get_bookable_dates

import "time"

// Request модель запроса календаря доступных дат
type Request struct {
	ResourceID        int64
	AppointmentTypeID int64
	From              time.Time // первая дата (включительно)
	To                time.Time // последняя дата (включительно)
}

// Response модель ответа: по одной записи на каждую дату диапазона
type Response struct {
	ResourceID        int64
	AppointmentTypeID int64
	Timezone          string
	Dates             []Date
}

// Date признак доступности одной даты
type Date struct {
	Date     time.Time
	Bookable bool
}
