// Package grounding projects asked questions and their evidence
// references into a graph database, building a per-session grounding
// graph that can be explored after the interview. The projector
// degrades gracefully: an unreachable graph never blocks a session.
package grounding

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/joss/viva/internal/interview"
	"github.com/joss/viva/internal/logging"
)

// Config holds graph connection settings.
type Config struct {
	URI      string
	Username string
	Password string
}

// Projector writes the grounding graph over the bolt protocol.
type Projector struct {
	driver neo4j.DriverWithContext
	log    *logging.Logger
}

// Verify Projector implements interview.GroundingSink
var _ interview.GroundingSink = (*Projector)(nil)

// Connect creates a Projector and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*Projector, error) {
	var auth neo4j.AuthToken
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	} else {
		auth = neo4j.NoAuth()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(pingCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify connectivity: %w", err)
	}

	return &Projector{driver: driver, log: logging.New("grounding")}, nil
}

// ConnectOptional tries to connect and returns nil when the graph is
// unavailable, logging once. Callers treat a nil sink as "no graph".
func ConnectOptional(ctx context.Context, cfg Config) *Projector {
	if cfg.URI == "" {
		return nil
	}
	p, err := Connect(ctx, cfg)
	if err != nil {
		logging.New("grounding").Warn("graph_unavailable", map[string]interface{}{"uri": cfg.URI}, err)
		return nil
	}
	return p
}

// ProjectQuestion merges the session, question and evidence-snippet
// nodes plus their relationships.
func (p *Projector) ProjectQuestion(ctx context.Context, sessionID string, q interview.Question) error {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (s:Session {id: $sessionID})
		MERGE (q:Question {id: $questionID})
		SET q.text = $text, q.intent = $intent, q.difficulty = $difficulty, q.askedAt = $askedAt
		MERGE (s)-[:ASKED]->(q)
	`, map[string]any{
		"sessionID":  sessionID,
		"questionID": q.ID,
		"text":       q.Text,
		"intent":     string(q.Intent),
		"difficulty": q.Difficulty,
		"askedAt":    q.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("project question: %w", err)
	}

	if err := p.projectSnippets(ctx, session, q.ID, "transcript", q.Grounding.FromTranscript); err != nil {
		return err
	}
	return p.projectSnippets(ctx, session, q.ID, "ocr", q.Grounding.FromOCR)
}

func (p *Projector) projectSnippets(ctx context.Context, session neo4j.SessionWithContext, questionID, source string, snippets []string) error {
	snippets = nonEmpty(snippets)
	if len(snippets) == 0 {
		return nil
	}
	_, err := session.Run(ctx, `
		MATCH (q:Question {id: $questionID})
		UNWIND $snippets AS snippet
		MERGE (e:Evidence {text: snippet, source: $source})
		MERGE (q)-[:GROUNDED_ON]->(e)
	`, map[string]any{
		"questionID": questionID,
		"snippets":   snippets,
		"source":     source,
	})
	if err != nil {
		return fmt.Errorf("project %s snippets: %w", source, err)
	}
	return nil
}

// Close releases the driver.
func (p *Projector) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}

// nonEmpty filters blank snippets; UNWIND over an empty list is a
// no-op, which is exactly what an ungrounded question should produce.
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
