package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"aide/internal/gateway"
	"aide/internal/registry"
	"aide/internal/session"
	apperrors "aide/pkg/errors"
	"aide/pkg/logger"
)

// SpeakToolName is the terminal voice tool. When a round's requests include
// it the loop ends and the assembler renders audio instead of the registry
// executing a handler.
const SpeakToolName = "speak_text"

// ModelGateway is the orchestrator's view of the language model
type ModelGateway interface {
	Query(ctx context.Context, history []session.Turn, tools []registry.Descriptor) (*gateway.TurnResult, error)
}

// Archiver records finished turns; it is optional and never on the
// response path
type Archiver interface {
	RecordTurn(ctx context.Context, sessionID string, turn session.Turn) error
}

// Options bound the agent loop
type Options struct {
	MaxToolRounds   int // tool-dispatch rounds per user input
	ToolParallelism int // concurrent invocations within one round
}

// Orchestrator drives the model-query/tool-dispatch cycle to a final
// answer. One run operates on a session at a time; concurrent inputs into
// the same session are rejected as busy.
type Orchestrator struct {
	sessions  *session.Manager
	gateway   ModelGateway
	registry  *registry.Registry
	assembler *Assembler
	archive   Archiver // nil when no persistence collaborator is wired
	opts      Options
	logger    *zap.Logger
}

// NewOrchestrator wires the core components together
func NewOrchestrator(sessions *session.Manager, gw ModelGateway, reg *registry.Registry, assembler *Assembler, opts Options) *Orchestrator {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 5
	}
	if opts.ToolParallelism <= 0 {
		opts.ToolParallelism = 4
	}
	return &Orchestrator{
		sessions:  sessions,
		gateway:   gw,
		registry:  reg,
		assembler: assembler,
		opts:      opts,
		logger:    logger.Get(),
	}
}

// SetArchive wires the optional transcript archive collaborator
func (o *Orchestrator) SetArchive(a Archiver) {
	o.archive = a
}

// Handle processes one user input for a session and always returns a
// well-formed AgentResponse; failures at this boundary are never raised.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, userText string) *AgentResponse {
	if strings.TrimSpace(userText) == "" {
		return ErrorResponse("empty input: please enter a message")
	}

	sess, err := o.sessions.Get(sessionID)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("session not found: %s", sessionID))
	}

	if !sess.TryBegin() {
		o.logger.Warn("Session busy, rejecting input", zap.String("session_id", sessionID))
		return ErrorResponse("session busy: a previous input is still being processed")
	}
	defer sess.End()

	return o.run(ctx, sess, userText)
}

// run executes the agent loop for one user input. The user turn is only
// appended once the first gateway call succeeds, so an aborted or cancelled
// first query leaves the session exactly as it was.
func (o *Orchestrator) run(ctx context.Context, sess *session.Session, userText string) *AgentResponse {
	defer sess.Unpin()

	userTurn := session.Turn{Role: session.RoleUser, Content: userText, Timestamp: time.Now()}
	userAppended := false
	appendUser := func() {
		if !userAppended {
			sess.Append(userTurn)
			userAppended = true
		}
	}

	rounds := 0
	for {
		history := sess.History(0)
		if !userAppended {
			history = append(history, userTurn)
		}

		result, err := o.gateway.Query(ctx, history, o.registry.Descriptors())
		if err != nil {
			return o.gatewayFailure(sess.ID, err)
		}
		// The previous round's tool-result tail is now resolved history
		sess.Unpin()

		if result.Kind == gateway.KindFinal {
			appendUser()
			assistant := session.Turn{Role: session.RoleAssistant, Content: result.Text, Timestamp: time.Now()}
			sess.Append(assistant)
			o.recordAsync(sess.ID, userTurn, assistant)
			return o.assembler.Text(result.Text)
		}

		calls := dedupeCalls(result.Calls, o.logger)

		if speak, ok := extractSpeak(calls); ok {
			if len(calls) > 1 {
				o.logger.Warn("Discarding tool calls issued alongside speak_text",
					zap.String("session_id", sess.ID),
					zap.Int("discarded", len(calls)-1),
				)
			}
			appendUser()
			voiceText, detailedText, speed := speakArguments(speak.Arguments)
			assistant := session.Turn{
				Role:         session.RoleAssistant,
				Content:      detailedText,
				VoiceText:    voiceText,
				DetailedText: detailedText,
				Timestamp:    time.Now(),
			}
			sess.Append(assistant)
			o.recordAsync(sess.ID, userTurn, assistant)
			return o.assembler.Spoken(ctx, voiceText, detailedText, speed)
		}

		if rounds >= o.opts.MaxToolRounds {
			budgetErr := apperrors.NewLoopBudgetExceeded(rounds)
			o.logger.Error("Tool loop budget exceeded",
				zap.String("session_id", sess.ID),
				zap.Int("rounds", rounds),
			)
			return ErrorResponse(budgetErr.Message)
		}

		appendUser()
		results := o.dispatch(ctx, calls)
		sess.Append(session.Turn{
			Role:      session.RoleSystem,
			Content:   summarizeResults(calls, results),
			Timestamp: time.Now(),
		})
		sess.PinTail()
		rounds++

		o.logger.Debug("Tool round complete",
			zap.String("session_id", sess.ID),
			zap.Int("round", rounds),
			zap.Int("calls", len(calls)),
		)
	}
}

// gatewayFailure converts a gateway error into the boundary response. No
// partial assistant turn has been appended by this point, so the session
// stays consistent for a retry.
func (o *Orchestrator) gatewayFailure(sessionID string, err error) *AgentResponse {
	if errors.Is(err, context.Canceled) {
		o.logger.Info("Turn cancelled", zap.String("session_id", sessionID))
		return ErrorResponse("request cancelled")
	}

	kind := apperrors.GatewayKindOf(err)
	o.logger.Error("Model gateway failure",
		zap.String("session_id", sessionID),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	switch kind {
	case apperrors.GatewayRateLimited:
		return ErrorResponse("model rate limited, try again shortly")
	case apperrors.GatewayTimeout:
		return ErrorResponse("model request timed out")
	default:
		return ErrorResponse("model returned a malformed response")
	}
}

// recordAsync hands finished turns to the archive without blocking the
// response path
func (o *Orchestrator) recordAsync(sessionID string, turns ...session.Turn) {
	if o.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, t := range turns {
			if err := o.archive.RecordTurn(ctx, sessionID, t); err != nil {
				o.logger.Warn("Failed to archive turn",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
				return
			}
		}
	}()
}

// extractSpeak finds a speak_text request in the round, if any
func extractSpeak(calls []registry.InvocationRequest) (registry.InvocationRequest, bool) {
	for _, c := range calls {
		if c.Name == SpeakToolName {
			return c, true
		}
	}
	return registry.InvocationRequest{}, false
}

// speakArguments pulls the voice/detailed split out of a speak_text call
func speakArguments(args map[string]interface{}) (voiceText, detailedText string, speed float64) {
	voiceText, _ = args["text"].(string)
	detailedText, _ = args["detailed_text"].(string)
	if detailedText == "" {
		detailedText = voiceText
	}
	speed = 1.0
	if v, ok := args["speed"].(float64); ok && v > 0 {
		speed = v
	}
	return voiceText, detailedText, speed
}
