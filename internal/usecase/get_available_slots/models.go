package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на получение слотов
type Request struct {
	ResourceID        int64     // ID ресурса (владельца расписания)
	AppointmentTypeID int64     // ID типа записи
	Date              time.Time // Календарная дата, время и пояс не учитываются
}

// Response модель ответа со списком слотов
type Response struct {
	Date              time.Time     // Полночь даты в часовом поясе ресурса
	ResourceID        int64         // ID ресурса
	AppointmentTypeID int64         // ID типа записи
	Timezone          string        // IANA часовой пояс ресурса
	DurationMinutes   int           // Длительность записи
	Slots             []domain.Slot // Слоты по возрастанию начала, включая занятые
}
