// Package toolkit holds the concrete tools the assistant can invoke:
// planning-document generation, email handling, voice output and webpage
// fetching. Each tool exposes registry descriptors only; the orchestrator
// never sees their internals.
package toolkit

import (
	"context"

	"aide/internal/registry"
)

// Tool names
const (
	ToolCreatePlanningDocument  = "create_planning_document"
	ToolSummarizeNotionDocument = "summarize_notion_document"
	ToolSendEmail               = "send_email"
	ToolListInbox               = "list_inbox"
	ToolFetchWebpage            = "fetch_webpage"
	ToolSpeakText               = "speak_text"
)

// Completer runs a single plain model completion. Implemented by the model
// gateway; tools that draft text themselves depend on this instead of the
// wire protocol.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string) (string, error)
}

// Deps carries the collaborators the tools need
type Deps struct {
	Completer Completer
	Notion    *NotionClient
	Email     *EmailTool
}

// Register wires every available tool into the registry. Tools whose
// collaborators are unconfigured still register; their handlers report the
// missing configuration as a failure result at invocation time.
func Register(reg *registry.Registry, deps Deps) error {
	planning := NewPlanningTool(deps.Completer, deps.Notion)
	web := NewWebTool()

	descriptors := []registry.Descriptor{
		planning.CreateDescriptor(),
		planning.SummarizeDescriptor(),
		web.FetchDescriptor(),
		SpeakDescriptor(),
	}
	if deps.Email != nil {
		descriptors = append(descriptors, deps.Email.SendDescriptor(), deps.Email.InboxDescriptor())
	}

	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
