package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRender_Substitution(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render("consultation-status-changed", map[string]string{
		"name":        "Dana",
		"service":     "renovation",
		"old_status":  "pending",
		"new_status":  "confirmed",
		"reason_line": "",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(subject, "confirmed") {
		t.Errorf("subject = %q, missing new status", subject)
	}
	if !strings.Contains(body, "pending") || !strings.Contains(body, "confirmed") {
		t.Errorf("body = %q, missing statuses", body)
	}
	if strings.Contains(body, "{{") {
		t.Errorf("body = %q, unreplaced placeholder", body)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestSend_RecordsOutcome(t *testing.T) {
	sender := &MockSender{}
	m := NewManager(sender, NewTemplateEngine(), zerolog.Nop())

	rec, err := m.Send(context.Background(), "welcome", map[string]string{"name": "Dana"}, "dana@example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if rec.Status != "sent" {
		t.Errorf("status = %q, want sent", rec.Status)
	}
	calls := sender.Calls()
	if len(calls) != 1 || calls[0].To != "dana@example.com" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestSend_Failure(t *testing.T) {
	sender := &MockSender{ShouldFail: true, FailError: "relay down"}
	m := NewManager(sender, NewTemplateEngine(), zerolog.Nop())

	rec, err := m.Send(context.Background(), "welcome", nil, "dana@example.com")
	if err == nil {
		t.Fatal("expected send error")
	}
	if rec.Status != "failed" || rec.Error == "" {
		t.Errorf("record = %+v, want failed with error", rec)
	}
}

func TestSendAsync_SwallowsFailure(t *testing.T) {
	sender := &MockSender{ShouldFail: true, FailError: "relay down"}
	m := NewManager(sender, NewTemplateEngine(), zerolog.Nop())

	m.SendAsync("welcome", nil, "dana@example.com")
	m.Wait()

	if len(sender.Calls()) != 1 {
		t.Fatalf("calls = %d, want 1", len(sender.Calls()))
	}
	if m.Stats()["failed"] != 1 {
		t.Errorf("stats = %v, want one failed", m.Stats())
	}
}
