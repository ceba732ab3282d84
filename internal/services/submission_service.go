package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/pkg/logger"
)

// ErrSubmissionNotFound indicates the referenced submission does not exist.
var ErrSubmissionNotFound = errors.New("submission: not found")

// SubmissionOption customises SubmissionService behaviour.
type SubmissionOption func(*SubmissionService)

// WithShuffleRand injects the random-int source used by the question
// shuffle, primarily for deterministic tests. The function must return a
// uniform value in [0, n).
func WithShuffleRand(randInt func(n int) int) SubmissionOption {
	return func(s *SubmissionService) {
		if randInt != nil {
			s.randInt = randInt
		}
	}
}

// SubmissionService creates submissions and their frozen question order,
// exactly once per attempt, safely under duplicate and concurrent calls.
type SubmissionService struct {
	db      *gorm.DB
	randInt func(n int) int
	log     *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(db *gorm.DB, opts ...SubmissionOption) (*SubmissionService, error) {
	if db == nil {
		return nil, errors.New("submission service: db is required")
	}

	service := &SubmissionService{
		db:      db,
		randInt: rand.Intn,
		log:     logger.WithModule("submissions"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// SeedTarget identifies the attempt a submission should exist for.
// Test must carry its active questions; FlowID/FlowItemID are set in flow
// mode; Invite is set when the call originates from a single-test invite.
type SeedTarget struct {
	CandidateID string
	Test        *models.Test
	FlowID      *string
	FlowItemID  *string
	Invite      *models.Invite
}

// EnsureSubmission returns the attempt's submission together with its frozen
// question order, creating both on first call. Randomization happens at most
// once per submission: every later call returns the previously frozen order.
// A submission left without items by a crash between the two inserts is
// reseeded without creating a second submission.
func (s *SubmissionService) EnsureSubmission(ctx context.Context, target SeedTarget) (*models.Submission, []models.SubmissionItem, error) {
	if target.Test == nil {
		return nil, nil, ErrTestNotFound
	}
	if target.CandidateID == "" {
		return nil, nil, errors.New("submission service: candidate id is required")
	}

	submission, err := s.findExisting(ctx, target)
	if err != nil {
		return nil, nil, err
	}

	if submission == nil {
		submission, err = s.create(ctx, target)
		if err != nil {
			return nil, nil, err
		}
	}

	items, err := s.ensureItems(ctx, submission, target.Test.Questions)
	if err != nil {
		return nil, nil, err
	}

	return submission, items, nil
}

// Items returns the frozen question order for a submission.
func (s *SubmissionService) Items(ctx context.Context, submissionID string) ([]models.SubmissionItem, error) {
	var items []models.SubmissionItem
	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("display_index ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("submission service: load items: %w", err)
	}
	return items, nil
}

func (s *SubmissionService) findExisting(ctx context.Context, target SeedTarget) (*models.Submission, error) {
	// Single-test reuse path: the invite already links a submission.
	if target.Invite != nil && target.Invite.SubmissionID != nil {
		var submission models.Submission
		err := s.db.WithContext(ctx).First(&submission, "id = ?", *target.Invite.SubmissionID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubmissionNotFound
			}
			return nil, fmt.Errorf("submission service: load linked submission: %w", err)
		}
		return &submission, nil
	}

	// Flow reuse path: one submission per (candidate, flow item).
	if target.FlowItemID != nil {
		var submission models.Submission
		err := s.db.WithContext(ctx).
			Where("candidate_id = ? AND flow_item_id = ?", target.CandidateID, *target.FlowItemID).
			First(&submission).Error
		if err == nil {
			return &submission, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission service: find flow submission: %w", err)
		}
	}

	return nil, nil
}

func (s *SubmissionService) create(ctx context.Context, target SeedTarget) (*models.Submission, error) {
	submission := models.Submission{
		TestID:      target.Test.ID,
		CandidateID: target.CandidateID,
		FlowID:      target.FlowID,
		FlowItemID:  target.FlowItemID,
	}

	if err := s.db.WithContext(ctx).Create(&submission).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("submission service: create submission: %w", err)
		}
		// A concurrent start won the race; reuse its row.
		existing, findErr := s.findExisting(ctx, target)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, fmt.Errorf("submission service: create submission: %w", err)
		}
		s.log.Debug("submission create conflict resolved by reuse",
			zap.String("submission_id", existing.ID),
			zap.String("candidate_id", target.CandidateID),
		)
		return existing, nil
	}

	return &submission, nil
}

func (s *SubmissionService) ensureItems(ctx context.Context, submission *models.Submission, questions []models.Question) ([]models.SubmissionItem, error) {
	items, err := s.Items(ctx, submission.ID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	shuffled := s.shuffle(questions)
	items = make([]models.SubmissionItem, 0, len(shuffled))
	for index, question := range shuffled {
		items = append(items, models.SubmissionItem{
			SubmissionID: submission.ID,
			QuestionID:   question.ID,
			DisplayIndex: index + 1,
		})
	}

	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("submission service: seed items: %w", err)
		}
		// A concurrent seeder froze the order first; read theirs back.
		return s.Items(ctx, submission.ID)
	}

	return items, nil
}

// shuffle produces a one-time display order via a Fisher-Yates pass over a
// copy of the question slice.
func (s *SubmissionService) shuffle(questions []models.Question) []models.Question {
	shuffled := make([]models.Question, len(questions))
	copy(shuffled, questions)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.randInt(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
