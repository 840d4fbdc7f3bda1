package api

import (
	"context"

	"github.com/censoparroquial/censo/internal/models"
)

// Offline is the survey service used when no backend is configured. Every
// call fails with ErrOffline so that drafts stay on the device.
type Offline struct{}

// GetByID implements the survey read call.
func (Offline) GetByID(context.Context, string) (*models.SurveyRecord, error) {
	return nil, ErrOffline
}

// Create implements the survey create call.
func (Offline) Create(context.Context, *models.SurveyPayload) (models.Result, error) {
	return models.Result{}, ErrOffline
}

// Update implements the survey update call.
func (Offline) Update(context.Context, string, *models.SurveyPayload) (models.Result, error) {
	return models.Result{}, ErrOffline
}
