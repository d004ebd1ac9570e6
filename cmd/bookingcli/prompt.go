package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/session"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

// errQuit пользователь завершил диалог
var errQuit = errors.New("quit")

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	loc *time.Location
}

func newPrompter(in io.Reader, out io.Writer, loc *time.Location) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out, loc: loc}
}

// run ведет сессию до подтверждения записи или выхода пользователя
func (p *prompter) run(ctx context.Context, s *session.Session) error {
	for {
		var err error
		switch s.State() {
		case session.StateCalendar:
			err = p.pickDate(ctx, s)
		case session.StateTime:
			err = p.pickSlot(ctx, s)
		case session.StateForm:
			err = p.fillForm(ctx, s)
		case session.StateConfirmation:
			p.confirmation(s.View())
			return nil
		}

		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			p.printf("bye\n")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (p *prompter) pickDate(ctx context.Context, s *session.Session) error {
	line, err := p.ask("date (YYYY-MM-DD), q to quit: ")
	if err != nil {
		return err
	}
	if line == "q" {
		return errQuit
	}

	d, err := time.ParseInLocation(domain.DateFormat, line, p.loc)
	if err != nil {
		p.printf("invalid date %q\n", line)
		return nil
	}
	return s.SelectDate(ctx, d)
}

func (p *prompter) pickSlot(ctx context.Context, s *session.Session) error {
	v := s.View()
	if v.Loading {
		p.printf("loading slots for %s...\n", v.Date.Format(domain.DateFormat))
	}
	if err := s.WaitSlots(ctx); err != nil {
		p.printf("failed to load slots: %v\n", err)
	}

	v = s.View()
	if v.LastError != nil {
		p.printf("%v\n", v.LastError)
	}
	if len(v.Slots) == 0 {
		p.printf("no slots on %s\n", v.Date.Format(domain.DateFormat))
	}
	for i, slot := range v.Slots {
		mark := "free"
		if !slot.Available {
			mark = "busy"
		}
		p.printf("%3d) %s - %s  %s\n", i+1, slot.Start.In(p.loc).Format(domain.TimeFormat), slot.End.In(p.loc).Format(domain.TimeFormat), mark)
	}

	line, err := p.ask("slot number, b to go back: ")
	if err != nil {
		return err
	}
	if line == "b" {
		return s.Back()
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(v.Slots) {
		p.printf("invalid slot %q\n", line)
		return nil
	}
	if err := s.SelectSlot(v.Slots[n-1]); err != nil {
		p.printf("%v\n", err)
	}
	return nil
}

func (p *prompter) fillForm(ctx context.Context, s *session.Session) error {
	v := s.View()
	if v.Selected != nil {
		p.printf("booking %s at %s\n", v.Selected.Start.In(p.loc).Format(domain.DateFormat), v.Selected.Start.In(p.loc).Format(domain.TimeFormat))
	}

	name, err := p.ask("name (b to go back): ")
	if err != nil {
		return err
	}
	if name == "b" {
		return s.Back()
	}
	email, err := p.ask("email: ")
	if err != nil {
		return err
	}
	phone, err := p.ask("phone: ")
	if err != nil {
		return err
	}
	notesLine, err := p.ask("notes: ")
	if err != nil {
		return err
	}

	var notes *string
	if notesLine != "" {
		notes = ptr.Ptr(notesLine)
	}

	_, err = s.Submit(ctx, domain.Contact{Name: name, Email: email, Phone: phone}, notes)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSlotTaken):
		p.printf("this slot was just taken, pick another one\n")
	default:
		p.printf("booking failed: %v\n", err)
	}
	return nil
}

func (p *prompter) confirmation(v session.View) {
	c := v.Confirmation
	if c == nil {
		return
	}
	p.printf("booked! confirmation code %s, %s - %s\n",
		c.ConfirmationCode, c.Start.In(p.loc).Format("2006-01-02 15:04"), c.End.In(p.loc).Format(domain.TimeFormat))
}

func (p *prompter) ask(prompt string) (string, error) {
	p.printf("%s", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *prompter) printf(format string, v ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, v...)
}
