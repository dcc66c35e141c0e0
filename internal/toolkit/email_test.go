package toolkit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"
)

func TestNewEmailTool_UnconfiguredIsNil(t *testing.T) {
	if tool := NewEmailTool(EmailConfig{}); tool != nil {
		t.Error("expected nil tool without credentials")
	}
	if tool := NewEmailTool(EmailConfig{Address: "a@b.com"}); tool != nil {
		t.Error("expected nil tool without app password")
	}
}

func TestComposeMessage(t *testing.T) {
	raw, err := composeMessage("me@example.com", "you@example.com", "Weekly sync notes", "See attached summary.")
	if err != nil {
		t.Fatalf("composeMessage failed: %v", err)
	}

	r, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("composed message does not parse: %v", err)
	}

	subject, err := r.Header.Subject()
	if err != nil || subject != "Weekly sync notes" {
		t.Errorf("unexpected subject: %q (%v)", subject, err)
	}
	from, err := r.Header.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "me@example.com" {
		t.Errorf("unexpected From: %v (%v)", from, err)
	}
	to, err := r.Header.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "you@example.com" {
		t.Errorf("unexpected To: %v (%v)", to, err)
	}
	if msgID, err := r.Header.MessageID(); err != nil || msgID == "" {
		t.Errorf("expected a message id, got %q (%v)", msgID, err)
	}
	if date, err := r.Header.Date(); err != nil || date.IsZero() {
		t.Errorf("expected a date header, got %v (%v)", date, err)
	}

	part, err := r.NextPart()
	if err != nil {
		t.Fatalf("no body part: %v", err)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(part.Body); err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(body.String(), "See attached summary.") {
		t.Errorf("body lost: %q", body.String())
	}
}

func TestComposeMessage_InvalidAddress(t *testing.T) {
	if _, err := composeMessage("me@example.com", "not an address", "s", "b"); err == nil {
		t.Error("expected error for invalid recipient")
	}
	if _, err := composeMessage("also bad", "you@example.com", "s", "b"); err == nil {
		t.Error("expected error for invalid sender")
	}
}
