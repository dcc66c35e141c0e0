package toolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"aide/pkg/logger"
)

const (
	notionAPIBase    = "https://api.notion.com/v1"
	notionAPIVersion = "2022-06-28"
)

// NotionClient is a thin client over the Notion REST API, used by the
// planning tool to store and retrieve documents
type NotionClient struct {
	apiKey       string
	parentPageID string
	baseURL      string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewNotionClient creates a Notion client; an empty apiKey yields a client
// whose calls fail with a configuration error
func NewNotionClient(apiKey, parentPageID string) *NotionClient {
	return &NotionClient{
		apiKey:       apiKey,
		parentPageID: parentPageID,
		baseURL:      notionAPIBase,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger.Get(),
	}
}

// Configured reports whether API credentials are present
func (n *NotionClient) Configured() bool {
	return n != nil && n.apiKey != ""
}

// CreatePage creates a child page under the configured parent with the
// given markdown-ish content split into paragraph blocks. Returns the page
// URL.
func (n *NotionClient) CreatePage(ctx context.Context, title, content string) (string, error) {
	if !n.Configured() {
		return "", fmt.Errorf("notion is not configured")
	}

	children := []map[string]interface{}{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		children = append(children, paragraphBlock(line))
		// Notion rejects requests with more than 100 blocks
		if len(children) == 100 {
			break
		}
	}

	body := map[string]interface{}{
		"parent": map[string]interface{}{"page_id": n.parentPageID},
		"properties": map[string]interface{}{
			"title": map[string]interface{}{
				"title": []map[string]interface{}{richText(title)},
			},
		},
		"children": children,
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := n.do(ctx, http.MethodPost, "/pages", body, &out); err != nil {
		return "", err
	}

	n.logger.Info("Notion page created", zap.String("title", title), zap.String("url", out.URL))
	return out.URL, nil
}

// SearchPage finds the first page whose title matches the keyword and
// returns its id, title and url
func (n *NotionClient) SearchPage(ctx context.Context, keyword string) (id, title, url string, err error) {
	if !n.Configured() {
		return "", "", "", fmt.Errorf("notion is not configured")
	}

	body := map[string]interface{}{
		"query":     keyword,
		"filter":    map[string]interface{}{"property": "object", "value": "page"},
		"page_size": 1,
	}
	var out struct {
		Results []struct {
			ID         string `json:"id"`
			URL        string `json:"url"`
			Properties map[string]struct {
				Title []struct {
					PlainText string `json:"plain_text"`
				} `json:"title"`
			} `json:"properties"`
		} `json:"results"`
	}
	if err := n.do(ctx, http.MethodPost, "/search", body, &out); err != nil {
		return "", "", "", err
	}
	if len(out.Results) == 0 {
		return "", "", "", fmt.Errorf("no page found for keyword: %s", keyword)
	}

	page := out.Results[0]
	for _, prop := range page.Properties {
		if len(prop.Title) > 0 {
			title = prop.Title[0].PlainText
			break
		}
	}
	return page.ID, title, page.URL, nil
}

// PageText fetches a page's block children and joins their plain text
func (n *NotionClient) PageText(ctx context.Context, pageID string) (string, error) {
	if !n.Configured() {
		return "", fmt.Errorf("notion is not configured")
	}

	var out struct {
		Results []struct {
			Paragraph struct {
				RichText []struct {
					PlainText string `json:"plain_text"`
				} `json:"rich_text"`
			} `json:"paragraph"`
		} `json:"results"`
	}
	if err := n.do(ctx, http.MethodGet, "/blocks/"+pageID+"/children?page_size=100", nil, &out); err != nil {
		return "", err
	}

	var parts []string
	for _, block := range out.Results {
		for _, rt := range block.Paragraph.RichText {
			if rt.PlainText != "" {
				parts = append(parts, rt.PlainText)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}

// do executes one API request and decodes the response into out
func (n *NotionClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Notion-Version", notionAPIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notion returned %d: %s", resp.StatusCode, data)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func richText(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "text",
		"text": map[string]interface{}{"content": text},
	}
}

func paragraphBlock(text string) map[string]interface{} {
	return map[string]interface{}{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]interface{}{
			"rich_text": []map[string]interface{}{richText(text)},
		},
	}
}
