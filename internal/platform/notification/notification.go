// Package notification delivers operational emails for subscription
// lifecycle events. Delivery is best-effort: callers log failures and
// continue, a lost email never fails the action that triggered it.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Template is a named email body with {{key}} placeholders.
type Template struct {
	Name    string
	Subject string
	Body    string
}

// Built-in template names.
const (
	TemplatePaymentSubmitted    = "payment-submitted"
	TemplateRegistrationPending = "registration-pending"
	TemplatePaymentReminder     = "payment-reminder"
	TemplateAccountApproved     = "account-approved"
	TemplateAccountRejected     = "account-rejected"
)

func builtinTemplates() map[string]Template {
	return map[string]Template{
		TemplatePaymentSubmitted: {
			Name:    TemplatePaymentSubmitted,
			Subject: "Payment proof received for {{doctor_email}}",
			Body:    "A payment proof was uploaded by {{doctor_email}} and is awaiting verification.",
		},
		TemplateRegistrationPending: {
			Name:    TemplateRegistrationPending,
			Subject: "New account awaiting verification: {{doctor_email}}",
			Body:    "A new doctor account for {{doctor_email}} was registered and is awaiting subscription verification.",
		},
		TemplatePaymentReminder: {
			Name:    TemplatePaymentReminder,
			Subject: "Your subscription renews in {{days_left}} day(s)",
			Body:    "Hello, your subscription payment is due on {{due_date}}. Upload your payment proof to keep your account active.",
		},
		TemplateAccountApproved: {
			Name:    TemplateAccountApproved,
			Subject: "Your subscription is active",
			Body:    "Your payment was verified. Your next payment date is {{next_payment_date}}.",
		},
		TemplateAccountRejected: {
			Name:    TemplateAccountRejected,
			Subject: "Your payment proof was rejected",
			Body:    "Your payment proof could not be verified. Please upload a new one from your dashboard.",
		},
	}
}

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
	SentAt  time.Time
}

// EmailSender delivers a rendered message.
type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// TemplateEngine renders registered templates with {{key}} substitution.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{templates: builtinTemplates()}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Name] = t
}

// Render substitutes {{key}} placeholders in the named template.
// Unknown placeholders are left intact.
func (e *TemplateEngine) Render(name string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("notification: unknown template %q", name)
	}
	subject = substitute(t.Subject, data)
	body = substitute(t.Body, data)
	return subject, body, nil
}

func substitute(s string, data map[string]string) string {
	for k, v := range data {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// Manager renders templates and hands them to a sender. Send failures
// are logged and swallowed so subscription flows never block on email.
type Manager struct {
	engine *TemplateEngine
	sender EmailSender
	logger zerolog.Logger
}

func NewManager(sender EmailSender, logger zerolog.Logger) *Manager {
	return &Manager{
		engine: NewTemplateEngine(),
		sender: sender,
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

// Engine exposes the template engine for registration overrides.
func (m *Manager) Engine() *TemplateEngine { return m.engine }

// SendTemplate renders the named template and delivers it to each
// recipient. Returns the number of successful deliveries.
func (m *Manager) SendTemplate(ctx context.Context, name string, recipients []string, data map[string]string) int {
	subject, body, err := m.engine.Render(name, data)
	if err != nil {
		m.logger.Error().Err(err).Str("template", name).Msg("render failed")
		return 0
	}
	sent := 0
	for _, to := range recipients {
		msg := Message{To: to, Subject: subject, Body: body, SentAt: time.Now().UTC()}
		if err := m.sender.Send(ctx, msg); err != nil {
			m.logger.Warn().Err(err).Str("template", name).Str("to", to).Msg("delivery failed")
			continue
		}
		sent++
	}
	return sent
}

// LogSender writes messages to the structured log instead of a mail
// provider. Used in development and as the default wiring.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mail").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email")
	return nil
}

// MockEmailSender records messages for tests.
type MockEmailSender struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func NewMockEmailSender() *MockEmailSender { return &MockEmailSender{} }

func (s *MockEmailSender) Send(_ context.Context, msg Message) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (s *MockEmailSender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
