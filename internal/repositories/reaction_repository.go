package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-gateway/internal/models"
)

// ReactionRepository defines reaction persistence. One row per
// (message, user); toggling the held reaction removes it, a different one
// replaces it.
type ReactionRepository interface {
	ToggleReaction(ctx context.Context, messageID string, userID string, reaction string) ([]models.ReactionGroup, error)
}

// ReactionRepo is a sqlx-backed repository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

type toggleOp int

const (
	toggleAdd toggleOp = iota
	toggleClear
	toggleMove
)

// toggleDecision resolves what a requested reaction does to the user's
// current row: no row adds one, the same reaction clears it, a different
// reaction moves the user to the new bucket.
func toggleDecision(current string, held bool, requested string) toggleOp {
	if !held {
		return toggleAdd
	}
	if current == requested {
		return toggleClear
	}
	return toggleMove
}

// groupReactions folds (reaction, user) rows into the per-symbol view that
// is broadcast to clients, preserving row order.
func groupReactions(rows []models.Reaction) []models.ReactionGroup {
	grouped := map[string]*models.ReactionGroup{}
	order := []string{}
	for _, row := range rows {
		group, ok := grouped[row.Reaction]
		if !ok {
			group = &models.ReactionGroup{Reaction: row.Reaction}
			grouped[row.Reaction] = group
			order = append(order, row.Reaction)
		}
		group.Users = append(group.Users, row.UserID)
		group.Count++
	}

	groups := make([]models.ReactionGroup, 0, len(order))
	for _, symbol := range order {
		groups = append(groups, *grouped[symbol])
	}
	return groups
}

// ToggleReaction applies the toggle inside one transaction and returns the
// resulting grouped view. The row lock serializes concurrent reactors on the
// same (message, user) pair.
func (r *ReactionRepo) ToggleReaction(ctx context.Context, messageID string, userID string, reaction string) ([]models.ReactionGroup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current string
	held := true
	err = tx.QueryRowxContext(ctx, `SELECT reaction FROM message_reactions WHERE message_id=$1 AND user_id=$2 FOR UPDATE`, messageID, userID).
		Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		held = false
	} else if err != nil {
		return nil, err
	}

	switch toggleDecision(current, held, reaction) {
	case toggleAdd:
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_reactions (message_id, user_id, reaction) VALUES ($1, $2, $3)`, messageID, userID, reaction); err != nil {
			return nil, err
		}
	case toggleClear:
		if _, err := tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2`, messageID, userID); err != nil {
			return nil, err
		}
	case toggleMove:
		if _, err := tx.ExecContext(ctx, `UPDATE message_reactions SET reaction=$1, created_at=NOW() WHERE message_id=$2 AND user_id=$3`, reaction, messageID, userID); err != nil {
			return nil, err
		}
	}

	var rows []models.Reaction
	if err := tx.SelectContext(ctx, &rows, `SELECT message_id, user_id, reaction, created_at FROM message_reactions WHERE message_id=$1 ORDER BY reaction, created_at`, messageID); err != nil {
		return nil, err
	}

	groups := groupReactions(rows)
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return groups, nil
}
