package repository

import (
	"context"
	"errors"
	"fmt"

	"merchant-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetFSMState(ctx context.Context, userID int64) (*models.FSMState, error) {
	var state models.FSMState
	err := r.db.WithContext(ctx).First(&state, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fsm state for user %d: %w", userID, err)
	}
	return &state, nil
}

func (r *Repository) SaveFSMState(ctx context.Context, state *models.FSMState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(state).
		Error
}

func (r *Repository) DeleteFSMState(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.FSMState{}).
		Error
}
