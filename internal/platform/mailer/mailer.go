// Package mailer provides outbound email with template rendering. Status
// change notifications are dispatched fire-and-forget: a delivery failure is
// logged and never surfaces to the caller.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EmailSender is the interface for delivering email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable email template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages email templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "consultation-received",
			Name:    "Consultation Received",
			Subject: "We received your consultation request",
			Body:    "Dear {{name}}, thank you for your {{service}} consultation request. Our team will review it and get back to you shortly.",
		},
		{
			ID:      "consultation-status-changed",
			Name:    "Consultation Status Changed",
			Subject: "Your consultation is now {{new_status}}",
			Body:    "Dear {{name}}, the status of your {{service}} consultation changed from {{old_status}} to {{new_status}}.{{reason_line}}",
		},
		{
			ID:      "welcome",
			Name:    "Welcome",
			Subject: "Welcome to Renovo",
			Body:    "Dear {{name}}, your account has been created. You can now request consultations and follow our latest projects.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Senders
// ---------------------------------------------------------------------------

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	Host string
	Port string
	From string
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body)
	addr := s.Host + ":" + s.Port
	if err := smtp.SendMail(addr, nil, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockSender is a test double for EmailSender.
type MockSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

// Record describes one dispatched email, kept for the admin log view.
type Record struct {
	ID         string     `json:"id"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	TemplateID string     `json:"template_id,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// Manager orchestrates rendering and delivery of outbound email.
type Manager struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger

	mu      sync.RWMutex
	records map[string]*Record
	wg      sync.WaitGroup
}

// NewManager constructs a Manager.
func NewManager(sender EmailSender, tpl *TemplateEngine, logger zerolog.Logger) *Manager {
	return &Manager{
		sender:    sender,
		templates: tpl,
		logger:    logger,
		records:   make(map[string]*Record),
	}
}

// Send renders the template and delivers it synchronously.
func (m *Manager) Send(ctx context.Context, templateID string, data map[string]string, recipient string) (*Record, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	rec := &Record{
		ID:         uuid.New().String(),
		Recipient:  recipient,
		Subject:    subject,
		TemplateID: templateID,
		Status:     "pending",
		CreatedAt:  time.Now().UTC(),
	}

	sendErr := m.sender.SendEmail(ctx, recipient, subject, body)
	if sendErr != nil {
		rec.Status = "failed"
		rec.Error = sendErr.Error()
	} else {
		rec.Status = "sent"
		sentAt := time.Now().UTC()
		rec.SentAt = &sentAt
	}

	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()

	return rec, sendErr
}

// SendAsync delivers the template in the background. Failures are logged and
// swallowed; the caller's operation must never depend on mail delivery.
func (m *Manager) SendAsync(templateID string, data map[string]string, recipient string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := m.Send(ctx, templateID, data, recipient); err != nil {
			m.logger.Warn().
				Err(err).
				Str("template", templateID).
				Str("recipient", recipient).
				Msg("email delivery failed")
		}
	}()
}

// Wait blocks until all in-flight async sends finish. Used by tests and by
// graceful shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Records returns a copy of all dispatch records.
func (m *Manager) Records() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}

// Stats returns counts of dispatched emails grouped by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[string]int)
	for _, r := range m.records {
		stats[r.Status]++
	}
	return stats
}
