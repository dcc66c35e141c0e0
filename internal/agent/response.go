package agent

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response type values; only meaningful when Status is success
const (
	ResponseTypeAudio = "audio_response"
	ResponseTypeText  = "text_fallback"
)

// AgentResponse is the externally visible typed response. Exactly one of
// success/error holds; TextContent is always populated on success as the
// accessible fallback even when audio is present.
type AgentResponse struct {
	Status       string `json:"status"`
	ResponseType string `json:"response_type,omitempty"`
	TextContent  string `json:"text_content,omitempty"`
	VoiceText    string `json:"voice_text,omitempty"`
	DetailedText string `json:"detailed_text,omitempty"`
	AudioContent []byte `json:"audio_content,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ErrorResponse builds a well-formed error response; boundary code never
// raises past the Handle contract
func ErrorResponse(message string) *AgentResponse {
	return &AgentResponse{
		Status:  StatusError,
		Message: message,
	}
}
