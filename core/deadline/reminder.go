package deadline

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

const reminderTemplate = "deadline_reminder"

var ErrNoRecipient = errors.New("no reminder recipient configured")

// Reminder emails the teacher the list of upcoming deadlines.
type Reminder struct {
	svc     Service
	mailSvc core.EmailService
	to      string
}

func NewReminder(svc Service, mailSvc core.EmailService, to string) *Reminder {
	return &Reminder{svc: svc, mailSvc: mailSvc, to: to}
}

// Send emails the deadlines due within window and returns them. Nothing is sent when none are due.
func (r *Reminder) Send(ctx context.Context, now time.Time, window time.Duration) ([]Deadline, error) {
	addr, err := mail.ParseAddress(r.to)
	if err != nil {
		return nil, errors.Wrap(ErrNoRecipient, r.to)
	}

	upcoming, err := r.svc.Upcoming(ctx, now, window)
	if err != nil {
		return nil, errors.Wrap(err, "listing upcoming deadlines")
	}
	if len(upcoming) == 0 {
		return upcoming, nil
	}

	r.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      fmt.Sprintf("%d coursework deadline(s) coming up", len(upcoming)),
		TemplateName: reminderTemplate,
		TemplateData: struct{ Deadlines []Deadline }{Deadlines: upcoming},
	})
	return upcoming, nil
}
