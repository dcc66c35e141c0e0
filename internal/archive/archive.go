// Package archive is the optional persistence collaborator: it records
// finished turns to Neo4j so transcripts survive process restarts. The core
// never depends on it; when unconfigured the assistant runs purely in
// memory.
package archive

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"aide/internal/session"
	"aide/pkg/logger"
)

// Archive writes session transcripts to Neo4j
type Archive struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New connects to Neo4j and verifies connectivity
func New(ctx context.Context, uri, user, password string) (*Archive, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return &Archive{
		driver: driver,
		logger: logger.Get(),
	}, nil
}

// RecordTurn appends one turn under its session node
func (a *Archive) RecordTurn(ctx context.Context, sessionID string, turn session.Turn) error {
	sess := a.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		query := `
			MERGE (s:Session {id: $sessionID})
			CREATE (t:Turn {
				role: $role,
				content: $content,
				voice_text: $voiceText,
				detailed_text: $detailedText,
				timestamp: $timestamp
			})
			CREATE (s)-[:HAS_TURN]->(t)
		`
		return tx.Run(ctx, query, map[string]interface{}{
			"sessionID":    sessionID,
			"role":         string(turn.Role),
			"content":      turn.Content,
			"voiceText":    turn.VoiceText,
			"detailedText": turn.DetailedText,
			"timestamp":    turn.Timestamp.UTC(),
		})
	})
	if err != nil {
		return err
	}

	a.logger.Debug("Turn archived",
		zap.String("session_id", sessionID),
		zap.String("role", string(turn.Role)),
	)
	return nil
}

// Close releases the underlying driver
func (a *Archive) Close(ctx context.Context) error {
	return a.driver.Close(ctx)
}
