package notification

import "errors"

var (
	// ErrEmptyAddress возвращается, если адрес получателя пуст
	ErrEmptyAddress = errors.New("notification: empty recipient address")

	// ErrRender возвращается при ошибке отрисовки шаблона
	ErrRender = errors.New("notification: failed to render template")

	// ErrDelivery возвращается, когда провайдер не принял сообщение
	ErrDelivery = errors.New("notification: delivery failed")

	// ErrNotConfigured возвращается, если провайдер не настроен
	ErrNotConfigured = errors.New("notification: provider not configured")
)
