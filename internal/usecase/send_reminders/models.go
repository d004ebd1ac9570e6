package send_reminders

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Channel канал доставки напоминаний
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Config параметры рассылки
type Config struct {
	Period      time.Duration           // период внешнего триггера
	Offsets     []domain.ReminderOffset // типы напоминаний и их смещения
	Concurrency int                     // сколько записей обрабатывается параллельно
	Budget      time.Duration           // бюджет одного прогона
	Channel     Channel
}

// Status итог обработки одной пары (запись, тип напоминания)
type Status string

const (
	StatusSent        Status = "sent"         // отправлено и отмечено
	StatusAlreadySent Status = "already_sent" // отметка уже была
	StatusNoAddress   Status = "no_address"   // нет адреса, повторов не будет
	StatusInProgress  Status = "in_progress"  // отправкой занят параллельный прогон
	StatusDuplicate   Status = "duplicate"    // отправлено, но отметку успел поставить параллельный прогон
	StatusFailed      Status = "failed"       // ошибка доставки или хранилища, повтор на следующем прогоне
	StatusDeferred    Status = "deferred"     // бюджет прогона исчерпан, не начиналось
)

// Detail результат по одной паре (запись, тип)
type Detail struct {
	AppointmentID int64
	ReminderType  domain.ReminderType
	Status        Status
	Error         string
}

// Response сводка прогона
type Response struct {
	Processed int
	Sent      int
	Errors    int
	Details   []Detail
}

// candidate запись, попавшая в окно напоминания
type candidate struct {
	appointment  *domain.Appointment
	reminderType domain.ReminderType
}
