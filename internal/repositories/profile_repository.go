package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-gateway/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository reads user display snippets from the backing store.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// ProfileRepo is a sqlx-backed repository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetProfile retrieves a user's profile snippet.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT user_id, display_name, avatar_url FROM profiles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}
