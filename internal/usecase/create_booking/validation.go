package create_booking

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resourceId must be positive", ErrInvalidInput)
	}

	if req.AppointmentTypeID <= 0 {
		return fmt.Errorf("%w: appointmentTypeId must be positive", ErrInvalidInput)
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}

	if !req.End.After(req.Start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return validateContact(req.Contact)
}

// validateContact проверяет контакт: имя обязательно, нужен хотя бы один канал связи
func validateContact(c domain.Contact) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidContact)
	}

	if utf8.RuneCountInString(name) > domain.MaxContactNameLength {
		return fmt.Errorf("%w: name must not exceed %d characters", ErrInvalidContact, domain.MaxContactNameLength)
	}

	if !c.HasEmail() && !c.HasPhone() {
		return fmt.Errorf("%w: email or phone is required", ErrInvalidContact)
	}

	if c.HasEmail() {
		if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
			return fmt.Errorf("%w: invalid email: %v", ErrInvalidContact, err)
		}
	}

	return nil
}

// normalizeContact убирает пробелы по краям полей контакта
func normalizeContact(c domain.Contact) domain.Contact {
	return domain.Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}
