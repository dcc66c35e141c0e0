package toolkit

import (
	"context"
	"fmt"

	"aide/internal/registry"
)

// SpeakDescriptor declares the terminal voice tool. The orchestrator
// intercepts speak_text requests and routes them to the response assembler,
// so the handler only exists as a defensive backstop.
func SpeakDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:        ToolSpeakText,
		Description: "Speak the final answer to the user. Provide a concise voice summary in 'text' and the full long-form answer in 'detailed_text'. Call this when a spoken response is appropriate; it ends the turn.",
		Parameters: map[string]registry.ParameterSpec{
			"text": {
				Type:        "string",
				Description: "Concise summary to speak aloud",
				Required:    true,
			},
			"detailed_text": {
				Type:        "string",
				Description: "Expanded long-form answer shown as text; defaults to the spoken text",
			},
			"speed": {
				Type:        "number",
				Description: "Playback speed multiplier, default 1.0",
			},
			"emotion": {
				Type:        "string",
				Description: "Delivery tone hint",
				Enum:        []string{"neutral", "cheerful", "serious", "apologetic"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, fmt.Errorf("speak_text is handled by the response assembler")
		},
	}
}
