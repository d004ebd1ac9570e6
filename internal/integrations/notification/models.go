package notification

import "time"

// TemplateFields данные для шаблона напоминания
type TemplateFields struct {
	AppointmentID    int64
	ReminderType     string
	ContactName      string
	StartTime        time.Time
	EndTime          time.Time
	Timezone         string
	ConfirmationCode string
	Notes            string
}

// Message отрисованное напоминание
type Message struct {
	Subject string
	Body    string
}

// smsPayload тело запроса к SMS webhook
type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}
