package repository

import (
	"context"

	"github.com/jetdesk/billing/internal/domain/entity"
)

type ProfileRepository interface {
	// GetByID returns (nil, nil) when the user has no profile.
	GetByID(ctx context.Context, userID string) (*entity.Profile, error)
}
