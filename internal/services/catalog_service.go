package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
)

var (
	// ErrTestNotFound indicates the referenced test does not exist or is not
	// visible to the caller.
	ErrTestNotFound = errors.New("test: not found")
	// ErrTestInactive indicates the test exists but is switched off.
	ErrTestInactive = errors.New("test: inactive")
	// ErrNoQuestions indicates the test has no active questions to present.
	ErrNoQuestions = errors.New("test: has no questions")
)

// CatalogService loads test definitions together with their active
// questions. Flows may reference tests owned by a different organization
// than the candidate's, so a cross-organization catalog lookup exists next
// to the ownership-scoped one.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) (*CatalogService, error) {
	if db == nil {
		return nil, errors.New("catalog service: db is required")
	}
	return &CatalogService{db: db}, nil
}

// GetTestWithQuestions returns a test owned by orgID with its active
// questions preloaded in creation order.
func (s *CatalogService) GetTestWithQuestions(ctx context.Context, testID, orgID string) (*models.Test, error) {
	return s.loadTest(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("id = ? AND org_id = ?", testID, orgID)
	})
}

// GetCatalogTestWithQuestions returns a test without an ownership filter.
func (s *CatalogService) GetCatalogTestWithQuestions(ctx context.Context, testID string) (*models.Test, error) {
	return s.loadTest(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("id = ?", testID)
	})
}

func (s *CatalogService) loadTest(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (*models.Test, error) {
	var test models.Test
	err := scope(s.db.WithContext(ctx)).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("created_at ASC")
		}).
		First(&test).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("catalog service: load test: %w", err)
	}
	return &test, nil
}
