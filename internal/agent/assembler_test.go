package agent

import (
	"context"
	"errors"
	"testing"
)

func TestAssembler_Text(t *testing.T) {
	a := NewAssembler(nil)
	resp := a.Text("plain answer")

	if resp.Status != StatusSuccess || resp.ResponseType != ResponseTypeText {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.TextContent != "plain answer" {
		t.Errorf("unexpected text: %q", resp.TextContent)
	}
}

func TestAssembler_SpokenWithAudio(t *testing.T) {
	a := NewAssembler(&fakeSynth{audio: []byte("AUDIO")})
	resp := a.Spoken(context.Background(), "short summary", "the long version", 1.2)

	if resp.ResponseType != ResponseTypeAudio {
		t.Fatalf("expected audio response, got %s", resp.ResponseType)
	}
	if string(resp.AudioContent) != "AUDIO" {
		t.Error("audio content missing")
	}
	if resp.VoiceText != "short summary" || resp.DetailedText != "the long version" {
		t.Errorf("voice/detailed texts wrong: %+v", resp)
	}
	if resp.TextContent != "the long version" {
		t.Errorf("text fallback must carry the detailed text, got %q", resp.TextContent)
	}
}

func TestAssembler_SpokenDefaultsDetailedToVoice(t *testing.T) {
	a := NewAssembler(&fakeSynth{audio: []byte("x")})
	resp := a.Spoken(context.Background(), "only voice", "", 0)

	if resp.DetailedText != "only voice" || resp.TextContent != "only voice" {
		t.Errorf("detailed text must default to voice text: %+v", resp)
	}
}

func TestAssembler_SpokenSynthFailureDegradesToText(t *testing.T) {
	a := NewAssembler(&fakeSynth{err: errors.New("tts down")})
	resp := a.Spoken(context.Background(), "summary", "details", 1)

	if resp.Status != StatusSuccess {
		t.Fatal("synthesis failure must not fail the turn")
	}
	if resp.ResponseType != ResponseTypeText {
		t.Errorf("expected text fallback, got %s", resp.ResponseType)
	}
	if len(resp.AudioContent) != 0 {
		t.Error("no audio expected on synthesis failure")
	}
	if resp.TextContent != "details" {
		t.Errorf("fallback must carry the detailed text, got %q", resp.TextContent)
	}
}

func TestAssembler_SpokenNoSynthesizer(t *testing.T) {
	a := NewAssembler(nil)
	resp := a.Spoken(context.Background(), "summary", "details", 1)

	if resp.ResponseType != ResponseTypeText || resp.TextContent != "details" {
		t.Errorf("expected text fallback without a synthesizer, got %+v", resp)
	}
}
