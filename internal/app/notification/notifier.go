// Package notification tells residents when staff move their application
// to a new status.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/email"
	"github.com/yigit/kebele/internal/pkg/metrics"
)

// Subject of every status-change email
const Subject = "Application Status Updated"

// OutcomeStatus is the result class of a dispatch attempt
type OutcomeStatus string

const (
	Sent    OutcomeStatus = "sent"
	Skipped OutcomeStatus = "skipped"
	Failed  OutcomeStatus = "failed"
)

// Outcome reports what happened to a notification. Err is set for Skipped
// and Failed.
type Outcome struct {
	Status OutcomeStatus
	Err    error
}

// EmailNotifier sends status-change notifications by email
type EmailNotifier struct {
	sender  email.Sender
	metrics *metrics.Metrics
}

// NewEmailNotifier creates an EmailNotifier. metrics may be nil.
func NewEmailNotifier(sender email.Sender, m *metrics.Metrics) *EmailNotifier {
	return &EmailNotifier{sender: sender, metrics: m}
}

// StatusChanged sends one email to owner describing app's current status.
// It never retries and never panics on transport errors.
func (n *EmailNotifier) StatusChanged(ctx context.Context, app *models.Application, owner *models.User) Outcome {
	out := n.dispatch(ctx, app, owner)
	n.metrics.IncrementNotifications(string(out.Status))
	return out
}

func (n *EmailNotifier) dispatch(ctx context.Context, app *models.Application, owner *models.User) Outcome {
	if owner == nil || owner.Email == "" {
		return Outcome{Status: Skipped, Err: errors.New("owner has no email address")}
	}

	err := n.sender.Send(ctx, StatusMessage(app, owner))
	switch {
	case err == nil:
		return Outcome{Status: Sent}
	case errors.Is(err, email.ErrNotConfigured):
		return Outcome{Status: Skipped, Err: err}
	default:
		return Outcome{Status: Failed, Err: err}
	}
}

// StatusMessage renders the status-change email for owner
func StatusMessage(app *models.Application, owner *models.User) email.Message {
	body := fmt.Sprintf("Dear %s,\n\nYour application for %s has been updated to %s.\n\nBest regards,\nKebele Office",
		owner.Username,
		app.ApplicationType.DisplayName(),
		app.Status.DisplayName(),
	)
	return email.Message{
		To:      owner.Email,
		Subject: Subject,
		Body:    body,
	}
}
