package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/model"
	"github.com/jetdesk/billing/internal/domain/repository"
	"gorm.io/gorm"
)

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, userID string) (*entity.Profile, error) {
	var m model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &entity.Profile{
		ID:        m.ID,
		CompanyID: deref(m.CompanyID),
		Email:     deref(m.Email),
		FullName:  deref(m.FullName),
		Role:      deref(m.Role),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
