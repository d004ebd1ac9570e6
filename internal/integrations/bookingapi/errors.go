package bookingapi

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("bookingapi client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("bookingapi client: invalid response")

	// ErrRejected возвращается, когда сервис отклонил запрос (400/404/422)
	ErrRejected = errors.New("bookingapi client: request rejected")

	// ErrRateLimited возвращается при ответе 429
	ErrRateLimited = errors.New("bookingapi client: rate limited")
)
