package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// scriptedCompleter returns canned completions in call order
type scriptedCompleter struct {
	outputs []string
	calls   int
	prompts []string
	err     error
}

func (s *scriptedCompleter) Complete(ctx context.Context, systemPrompt string) (string, error) {
	s.prompts = append(s.prompts, systemPrompt)
	if s.err != nil {
		return "", s.err
	}
	out := s.outputs[s.calls%len(s.outputs)]
	s.calls++
	return out, nil
}

func createArgs() map[string]interface{} {
	return map[string]interface{}{
		"user_input":       "plan the Q3 launch",
		"writer_persona":   "strategist",
		"reviewer_persona": "engineer",
		"template_name":    "project_plan",
	}
}

func TestPlanningCreate_DraftReviewRevise(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{"DRAFT", "FEEDBACK", "FINAL"}}
	tool := NewPlanningTool(completer, NewNotionClient("", ""))

	out, err := tool.create(context.Background(), createArgs())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if completer.calls != 3 {
		t.Errorf("expected draft, review and revision completions, got %d", completer.calls)
	}

	// Reviewer sees the draft, writer sees draft plus feedback
	if !strings.Contains(completer.prompts[1], "DRAFT") {
		t.Error("review prompt missing the draft")
	}
	if !strings.Contains(completer.prompts[2], "DRAFT") || !strings.Contains(completer.prompts[2], "FEEDBACK") {
		t.Error("revision prompt missing draft or feedback")
	}

	payload := out.(map[string]interface{})
	if payload["final_doc"] != "FINAL" {
		t.Errorf("expected revised document, got %v", payload["final_doc"])
	}
	if _, ok := payload["notion_error"]; !ok {
		t.Error("expected notion_error when notion is unconfigured")
	}
}

func TestPlanningCreate_ValidatesPersonaAndTemplate(t *testing.T) {
	tool := NewPlanningTool(&scriptedCompleter{outputs: []string{"x"}}, NewNotionClient("", ""))

	args := createArgs()
	args["writer_persona"] = "wizard"
	if _, err := tool.create(context.Background(), args); err == nil {
		t.Error("expected unknown persona error")
	}

	args = createArgs()
	args["template_name"] = "novel"
	if _, err := tool.create(context.Background(), args); err == nil {
		t.Error("expected unknown template error")
	}

	args = createArgs()
	args["user_input"] = "  "
	if _, err := tool.create(context.Background(), args); err == nil {
		t.Error("expected empty input error")
	}
}

func TestPlanningCreate_UploadsToNotion(t *testing.T) {
	var gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		var body struct {
			Properties struct {
				Title struct {
					Title []struct {
						Text struct {
							Content string `json:"content"`
						} `json:"text"`
					} `json:"title"`
				} `json:"title"`
			} `json:"properties"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Properties.Title.Title) > 0 {
			gotTitle = body.Properties.Title.Title[0].Text.Content
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://notion.so/page-1"})
	}))
	defer srv.Close()

	notion := NewNotionClient("test-key", "parent-1")
	notion.baseURL = srv.URL
	tool := NewPlanningTool(&scriptedCompleter{outputs: []string{"doc text"}}, notion)

	out, err := tool.create(context.Background(), createArgs())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	payload := out.(map[string]interface{})
	if payload["notion_url"] != "https://notion.so/page-1" {
		t.Errorf("expected page url in payload, got %v", payload)
	}
	if !strings.Contains(gotTitle, "project_plan (strategist)") {
		t.Errorf("unexpected page title: %q", gotTitle)
	}
}

func TestPlanningCreate_NotionFailureStillReturnsDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"validation_error"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	notion := NewNotionClient("test-key", "parent-1")
	notion.baseURL = srv.URL
	tool := NewPlanningTool(&scriptedCompleter{outputs: []string{"doc text"}}, notion)

	out, err := tool.create(context.Background(), createArgs())
	if err != nil {
		t.Fatalf("upload failure must not fail the tool: %v", err)
	}
	payload := out.(map[string]interface{})
	if payload["final_doc"] != "doc text" {
		t.Error("document lost on upload failure")
	}
	if payload["notion_error"] == nil {
		t.Error("upload failure not reported")
	}
}

func TestPlanningSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					{
						"id":  "page-1",
						"url": "https://notion.so/page-1",
						"properties": map[string]interface{}{
							"title": map[string]interface{}{
								"title": []map[string]interface{}{{"plain_text": "Q3 Launch Plan"}},
							},
						},
					},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/blocks/page-1/children"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					{"paragraph": map[string]interface{}{
						"rich_text": []map[string]interface{}{{"plain_text": "Ship by September."}},
					}},
				},
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	notion := NewNotionClient("test-key", "parent-1")
	notion.baseURL = srv.URL
	completer := &scriptedCompleter{outputs: []string{"Summary: ship in September."}}
	tool := NewPlanningTool(completer, notion)

	out, err := tool.summarize(context.Background(), map[string]interface{}{"keyword": "launch"})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	payload := out.(map[string]interface{})
	if payload["title"] != "Q3 Launch Plan" || payload["summary"] != "Summary: ship in September." {
		t.Errorf("unexpected payload: %v", payload)
	}
	if !strings.Contains(completer.prompts[0], "Ship by September.") {
		t.Error("summary prompt missing the page content")
	}
}

func TestPlanningSummarize_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	notion := NewNotionClient("test-key", "parent-1")
	notion.baseURL = srv.URL
	tool := NewPlanningTool(&scriptedCompleter{outputs: []string{"x"}}, notion)

	if _, err := tool.summarize(context.Background(), map[string]interface{}{"keyword": "missing"}); err == nil {
		t.Error("expected error when no page matches")
	}
}
