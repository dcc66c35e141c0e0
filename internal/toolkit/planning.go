package toolkit

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"aide/internal/registry"
	"aide/pkg/logger"
)

// PlanningTool drafts planning documents through a writer/reviewer persona
// exchange and stores the result in Notion
type PlanningTool struct {
	completer Completer
	notion    *NotionClient
	logger    *zap.Logger
}

// NewPlanningTool creates the planning tool
func NewPlanningTool(completer Completer, notion *NotionClient) *PlanningTool {
	return &PlanningTool{
		completer: completer,
		notion:    notion,
		logger:    logger.Get(),
	}
}

// CreateDescriptor declares create_planning_document
func (p *PlanningTool) CreateDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name: ToolCreatePlanningDocument,
		Description: fmt.Sprintf(
			"Create a planning document from the user's requirements: a writer persona drafts it, a reviewer persona critiques it, the writer revises, and the final version is uploaded to Notion. Personas: %s. Templates: %s.",
			strings.Join(personaNames(), ", "), strings.Join(templateNames(), ", ")),
		Parameters: map[string]registry.ParameterSpec{
			"user_input": {
				Type:        "string",
				Description: "The user's requirements or topic for the document",
				Required:    true,
			},
			"writer_persona": {
				Type:        "string",
				Description: "Persona that writes the document",
				Required:    true,
				Enum:        personaNames(),
			},
			"reviewer_persona": {
				Type:        "string",
				Description: "Persona that reviews the draft",
				Required:    true,
				Enum:        personaNames(),
			},
			"template_name": {
				Type:        "string",
				Description: "Document template to follow",
				Required:    true,
				Enum:        templateNames(),
			},
		},
		Handler: p.create,
	}
}

// SummarizeDescriptor declares summarize_notion_document
func (p *PlanningTool) SummarizeDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        ToolSummarizeNotionDocument,
		Description: "Find a Notion planning document by keyword and summarize its content with key action items.",
		Parameters: map[string]registry.ParameterSpec{
			"keyword": {
				Type:        "string",
				Description: "Keyword to search page titles for",
				Required:    true,
			},
		},
		Handler: p.summarize,
	}
}

func (p *PlanningTool) create(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	userInput, _ := args["user_input"].(string)
	writerName, _ := args["writer_persona"].(string)
	reviewerName, _ := args["reviewer_persona"].(string)
	templateName, _ := args["template_name"].(string)

	if strings.TrimSpace(userInput) == "" {
		return nil, fmt.Errorf("user_input is empty")
	}
	writer, ok := personas[writerName]
	if !ok {
		return nil, fmt.Errorf("unknown writer persona %q, available: %s", writerName, strings.Join(personaNames(), ", "))
	}
	reviewer, ok := personas[reviewerName]
	if !ok {
		return nil, fmt.Errorf("unknown reviewer persona %q, available: %s", reviewerName, strings.Join(personaNames(), ", "))
	}
	sections, ok := documentTemplates[templateName]
	if !ok {
		return nil, fmt.Errorf("unknown template %q, available: %s", templateName, strings.Join(templateNames(), ", "))
	}

	p.logger.Info("Creating planning document",
		zap.String("writer", writerName),
		zap.String("reviewer", reviewerName),
		zap.String("template", templateName),
	)

	draft, err := p.completer.Complete(ctx, draftPrompt(userInput, writer, templateName, sections))
	if err != nil {
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}

	feedback, err := p.completer.Complete(ctx, feedbackPrompt(reviewer, draft))
	if err != nil {
		return nil, fmt.Errorf("review generation failed: %w", err)
	}

	finalDoc, err := p.completer.Complete(ctx, revisionPrompt(writer, draft, feedback))
	if err != nil {
		return nil, fmt.Errorf("revision generation failed: %w", err)
	}

	title := fmt.Sprintf("%s (%s) - %s", templateName, writerName, truncate(userInput, 40))

	payload := map[string]interface{}{
		"title":     title,
		"final_doc": finalDoc,
	}

	if p.notion.Configured() {
		url, err := p.notion.CreatePage(ctx, title, finalDoc)
		if err != nil {
			// The document still exists; report the upload failure alongside it
			payload["notion_error"] = err.Error()
		} else {
			payload["notion_url"] = url
		}
	} else {
		payload["notion_error"] = "notion is not configured; document was not uploaded"
	}

	return payload, nil
}

func (p *PlanningTool) summarize(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	keyword, _ := args["keyword"].(string)
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("keyword is empty")
	}

	pageID, title, url, err := p.notion.SearchPage(ctx, keyword)
	if err != nil {
		return nil, err
	}

	content, err := p.notion.PageText(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("page %q has no readable content", title)
	}

	summary, err := p.completer.Complete(ctx, summaryPrompt(title, content))
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}

	return map[string]interface{}{
		"title":   title,
		"url":     url,
		"summary": summary,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
