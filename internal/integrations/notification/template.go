package notification

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

const (
	subjectTemplate = `Напоминание: запись {{ when . }}`

	bodyTemplate = `Здравствуйте{{ if .ContactName }}, {{ .ContactName }}{{ end }}!

Напоминаем о записи {{ when . }} ({{ .ReminderType }} до начала).
Код подтверждения: {{ .ConfirmationCode }}
{{- if .Notes }}
Комментарий: {{ .Notes }}
{{- end }}
`

	smsTemplate = `Запись {{ when . }}, код {{ .ConfirmationCode }}`
)

var templates = template.Must(template.New("root").Funcs(template.FuncMap{
	"when": formatWhen,
}).Parse(`{{ define "subject" }}` + subjectTemplate + `{{ end }}` +
	`{{ define "body" }}` + bodyTemplate + `{{ end }}` +
	`{{ define "sms" }}` + smsTemplate + `{{ end }}`))

// formatWhen печатает время начала в часовом поясе ресурса
func formatWhen(f TemplateFields) string {
	start := f.StartTime
	if f.Timezone != "" {
		if loc, err := time.LoadLocation(f.Timezone); err == nil {
			start = start.In(loc)
		}
	}
	return start.Format("02.01.2006 15:04 MST")
}

// Render отрисовывает письмо с напоминанием
func Render(f TemplateFields) (Message, error) {
	subject, err := execute("subject", f)
	if err != nil {
		return Message{}, err
	}
	body, err := execute("body", f)
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, Body: body}, nil
}

// RenderSMS отрисовывает короткий текст для SMS
func RenderSMS(f TemplateFields) (string, error) {
	return execute("sms", f)
}

func execute(name string, f TemplateFields) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, f); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRender, name, err)
	}
	return buf.String(), nil
}
