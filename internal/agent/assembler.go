package agent

import (
	"context"

	"go.uber.org/zap"

	"aide/pkg/logger"
)

// Synthesizer renders text to audio. The assembler treats it as a black
// box; synthesis failures are reported, never retried or hidden.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speed float64) ([]byte, error)
}

// Assembler converts the orchestrator's final text into an AgentResponse,
// optionally rendering audio
type Assembler struct {
	synth  Synthesizer
	logger *zap.Logger
}

// NewAssembler creates an assembler; synth may be nil when no voice
// collaborator is wired in
func NewAssembler(synth Synthesizer) *Assembler {
	return &Assembler{
		synth:  synth,
		logger: logger.Get(),
	}
}

// Text assembles a plain text response
func (a *Assembler) Text(text string) *AgentResponse {
	return &AgentResponse{
		Status:       StatusSuccess,
		ResponseType: ResponseTypeText,
		TextContent:  text,
	}
}

// Spoken assembles a voice response: audio of the voice summary plus the
// detailed text as fallback. On synthesis failure it degrades to
// text_fallback carrying the detailed text.
func (a *Assembler) Spoken(ctx context.Context, voiceText, detailedText string, speed float64) *AgentResponse {
	if detailedText == "" {
		detailedText = voiceText
	}

	if a.synth == nil {
		return &AgentResponse{
			Status:       StatusSuccess,
			ResponseType: ResponseTypeText,
			TextContent:  detailedText,
			VoiceText:    voiceText,
			DetailedText: detailedText,
		}
	}

	audio, err := a.synth.Synthesize(ctx, voiceText, speed)
	if err != nil {
		a.logger.Warn("Speech synthesis failed, falling back to text", zap.Error(err))
		return &AgentResponse{
			Status:       StatusSuccess,
			ResponseType: ResponseTypeText,
			TextContent:  detailedText,
			VoiceText:    voiceText,
			DetailedText: detailedText,
		}
	}

	return &AgentResponse{
		Status:       StatusSuccess,
		ResponseType: ResponseTypeAudio,
		TextContent:  detailedText,
		VoiceText:    voiceText,
		DetailedText: detailedText,
		AudioContent: audio,
	}
}
