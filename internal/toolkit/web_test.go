package toolkit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Release Notes</title><style>body { color: red }</style></head>
<body>
<nav>Home | Docs | About</nav>
<h1>Version 2.0</h1>
<p>This release adds streaming support.</p>
<script>trackPageView();</script>
<ul><li>Faster startup</li></ul>
<footer>Copyright</footer>
</body>
</html>`

func TestWebFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	out, err := NewWebTool().fetch(context.Background(), map[string]interface{}{"url": srv.URL})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	payload := out.(map[string]interface{})
	if payload["title"] != "Release Notes" {
		t.Errorf("unexpected title: %v", payload["title"])
	}

	text := payload["text"].(string)
	for _, want := range []string{"Version 2.0", "streaming support", "Faster startup"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text missing %q", want)
		}
	}
	for _, unwanted := range []string{"trackPageView", "color: red", "Home | Docs", "Copyright"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("extracted text must not include %q", unwanted)
		}
	}
}

func TestWebFetch_RejectsRelativeURL(t *testing.T) {
	if _, err := NewWebTool().fetch(context.Background(), map[string]interface{}{"url": "docs/page.html"}); err == nil {
		t.Error("expected error for relative url")
	}
}

func TestWebFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := NewWebTool().fetch(context.Background(), map[string]interface{}{"url": srv.URL}); err == nil {
		t.Error("expected error for 404 page")
	}
}

func TestWebFetch_TruncatesLongPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><title>Long</title></head><body>")
		for i := 0; i < 500; i++ {
			fmt.Fprintf(w, "<p>paragraph %d with some filler words to add length</p>", i)
		}
		fmt.Fprint(w, "</body></html>")
	}))
	defer srv.Close()

	out, err := NewWebTool().fetch(context.Background(), map[string]interface{}{"url": srv.URL})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	text := out.(map[string]interface{})["text"].(string)
	if len(text) > maxPageText+100 {
		t.Errorf("text not truncated: %d bytes", len(text))
	}
	if !strings.HasSuffix(text, "...(truncated)") {
		t.Error("expected truncation marker")
	}
}
