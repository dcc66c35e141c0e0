package toolkit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"aide/internal/registry"
	"aide/pkg/logger"
)

// maxPageText caps how much extracted text is fed back into model context
const maxPageText = 4000

// WebTool fetches webpages so the model can read external references
type WebTool struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebTool creates a web tool with a bounded HTTP client
func NewWebTool() *WebTool {
	return &WebTool{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.Get(),
	}
}

// FetchDescriptor declares the fetch_webpage tool
func (w *WebTool) FetchDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        ToolFetchWebpage,
		Description: "Fetch a webpage and extract its title and readable text. Use this to read documentation, articles or references the user points at.",
		Parameters: map[string]registry.ParameterSpec{
			"url": {
				Type:        "string",
				Description: "Absolute URL of the page to fetch",
				Required:    true,
			},
		},
		Handler: w.fetch,
	}
}

func (w *WebTool) fetch(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	urlStr, _ := args["url"].(string)
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		return nil, fmt.Errorf("url must be absolute: %s", urlStr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, nav, footer, noscript").Remove()
	var parts []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	text := strings.Join(parts, "\n")
	if len(text) > maxPageText {
		text = text[:maxPageText] + "\n...(truncated)"
	}

	w.logger.Debug("Webpage fetched",
		zap.String("url", urlStr),
		zap.String("title", title),
		zap.Int("text_len", len(text)),
	)

	return map[string]interface{}{
		"url":   urlStr,
		"title": title,
		"text":  text,
	}, nil
}
