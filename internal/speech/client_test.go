package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "aide/pkg/errors"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, []byte("fake-audio")) {
			t.Error("audio body not forwarded")
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	text, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestTranscribe_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Transcribe(context.Background(), []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeSpeech) {
		t.Errorf("expected typed speech error, got %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Text  string  `json:"text"`
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request: %v", err)
		}
		if req.Text != "say this" {
			t.Errorf("unexpected text: %q", req.Text)
		}
		if req.Speed != 1.0 {
			t.Errorf("expected default speed 1.0, got %v", req.Speed)
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	audio, err := c.Synthesize(context.Background(), "say this", 0)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "audio-bytes" {
		t.Errorf("unexpected audio: %q", audio)
	}
}

func TestSynthesize_EmptyAudioIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	if _, err := c.Synthesize(context.Background(), "x", 1); err == nil {
		t.Fatal("expected error for empty audio body")
	}
}
