package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
)

// SessionRepository stores chat sessions and their turns. Turns are append
// only; the pipeline reads a bounded suffix.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

var _ ports.SessionStore = (*SessionRepository)(nil)

func (r *SessionRepository) EnsureSession(ctx context.Context, sessionID string, language domain.Language) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, preferred_language, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (id) DO NOTHING`, sessionID, string(language), now)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

func (r *SessionRepository) PreferredLanguage(ctx context.Context, sessionID string) (domain.Language, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT preferred_language FROM sessions WHERE id = $1`, sessionID)

	var language string
	if err := row.Scan(&language); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrSessionNotFound, "preferred language", err)
		}
		return "", fmt.Errorf("preferred language: %w", err)
	}
	return domain.Language(language), nil
}

func (r *SessionRepository) UpdatePreferredLanguage(ctx context.Context, sessionID string, language domain.Language) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sessions SET preferred_language = $2, updated_at = $3 WHERE id = $1`,
		sessionID, string(language), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update preferred language: %w", err)
	}
	return nil
}

// RecentTurns returns the last limit turns in chronological order.
func (r *SessionRepository) RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT role, content
FROM session_turns
WHERE session_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	turns := make([]domain.Turn, 0, limit)
	for rows.Next() {
		var turn domain.Turn
		var role string
		if err := rows.Scan(&role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Role = domain.TurnRole(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// The query reads newest first; callers expect oldest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO session_turns (id, session_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), sessionID, string(turn.Role), turn.Content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}
