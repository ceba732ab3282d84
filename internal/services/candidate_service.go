package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
)

// ErrCandidateNotFound indicates the referenced candidate does not exist.
var ErrCandidateNotFound = errors.New("candidate: not found")

// CandidateService is a thin persistence wrapper for candidates: the
// assessment core only ever reads a candidate and advances its pipeline
// status after a successful submission.
type CandidateService struct {
	db *gorm.DB
}

// NewCandidateService constructs a CandidateService.
func NewCandidateService(db *gorm.DB) (*CandidateService, error) {
	if db == nil {
		return nil, errors.New("candidate service: db is required")
	}
	return &CandidateService{db: db}, nil
}

// GetByID loads one candidate.
func (s *CandidateService) GetByID(ctx context.Context, candidateID string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := s.db.WithContext(ctx).First(&candidate, "id = ?", candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("candidate service: load candidate: %w", err)
	}
	return &candidate, nil
}

// UpdateStatus moves the candidate to a new pipeline status.
func (s *CandidateService) UpdateStatus(ctx context.Context, candidateID, status string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("candidate service: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}
