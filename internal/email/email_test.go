package email

import (
	"context"
	"strings"
	"testing"
)

func TestSMTPConfigIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
		want bool
	}{
		{"empty", SMTPConfig{}, false},
		{"host only", SMTPConfig{Host: "smtp.example.com"}, false},
		{"from only", SMTPConfig{From: "a@b.com"}, false},
		{"host and from", SMTPConfig{Host: "smtp.example.com", From: "a@b.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	msg := Build("forum@example.com", Message{
		To:      "mod@example.com",
		Subject: "New note",
		Body:    "line one\nline two",
		Headers: map[string]string{
			"X-Forum-Note-ID": "7",
			"Auto-Submitted":  "auto-generated",
		},
	})
	got := string(msg)

	for _, want := range []string{
		"From: forum@example.com\r\n",
		"To: mod@example.com\r\n",
		"Subject: New note\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
		"X-Forum-Note-ID: 7\r\n",
		"\r\n\r\nline one\r\nline two",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q:\n%s", want, got)
		}
	}

	if strings.Index(got, "Auto-Submitted") > strings.Index(got, "X-Forum-Note-ID") {
		t.Error("extra headers should be sorted")
	}
}

func TestBuildStripsHeaderInjection(t *testing.T) {
	msg := string(Build("f@example.com", Message{
		To:      "m@example.com",
		Subject: "hi\r\nBcc: evil@example.com",
	}))

	if strings.Contains(msg, "\r\nBcc:") {
		t.Errorf("subject injected a header:\n%s", msg)
	}
}

func TestSendDevModeDoesNotDial(t *testing.T) {
	m := NewMailer(SMTPConfig{}, true)
	if err := m.Send(context.Background(), Message{To: "a@b.com", Subject: "s", Body: "b"}); err != nil {
		t.Fatalf("dev send: %v", err)
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "h", From: "f@b.com"}, true)
	if err := m.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestSendNotConfigured(t *testing.T) {
	m := NewMailer(SMTPConfig{}, false)
	err := m.Send(context.Background(), Message{To: "a@b.com"})
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestSendHonoursCancelledContext(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "127.0.0.1", Port: "1", From: "f@b.com"}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Send(ctx, Message{To: "a@b.com"}); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}
