package toolkit

import (
	"testing"
	"time"

	"aide/internal/registry"
)

func registeredNames(reg *registry.Registry) map[string]bool {
	names := map[string]bool{}
	for _, d := range reg.Descriptors() {
		names[d.Name] = true
	}
	return names
}

func TestRegister_CoreTools(t *testing.T) {
	reg := registry.New(time.Second)
	err := Register(reg, Deps{
		Completer: &scriptedCompleter{outputs: []string{"x"}},
		Notion:    NewNotionClient("", ""),
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	names := registeredNames(reg)
	for _, want := range []string{ToolCreatePlanningDocument, ToolSummarizeNotionDocument, ToolFetchWebpage, ToolSpeakText} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
	if names[ToolSendEmail] || names[ToolListInbox] {
		t.Error("email tools must not register without an account")
	}
}

func TestRegister_WithEmail(t *testing.T) {
	reg := registry.New(time.Second)
	err := Register(reg, Deps{
		Completer: &scriptedCompleter{outputs: []string{"x"}},
		Notion:    NewNotionClient("", ""),
		Email: NewEmailTool(EmailConfig{
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			IMAPHost:    "imap.example.com",
			IMAPPort:    993,
			Address:     "me@example.com",
			AppPassword: "secret",
		}),
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	names := registeredNames(reg)
	if !names[ToolSendEmail] || !names[ToolListInbox] {
		t.Error("email tools missing with a configured account")
	}
}
