package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/pkg/logger"
)

var (
	// ErrNoAnswers indicates an empty answer batch.
	ErrNoAnswers = errors.New("assessment: answer batch is empty")
	// ErrSubmissionAlreadyCompleted indicates answers were already accepted
	// for this submission.
	ErrSubmissionAlreadyCompleted = errors.New("submission: already completed")
	// ErrSubmissionNotLinkedToCandidate indicates the submission belongs to a
	// different candidate than the invite.
	ErrSubmissionNotLinkedToCandidate = errors.New("submission: not linked to candidate")
	// ErrSubmissionNotLinkedToInvite indicates a single-test submit against a
	// submission other than the one the invite started.
	ErrSubmissionNotLinkedToInvite = errors.New("submission: not linked to invite")
	// ErrSubmissionNotInFlow indicates the submission's flow item is not part
	// of the candidate's active flow.
	ErrSubmissionNotInFlow = errors.New("submission: not part of active flow")
	// ErrInvalidQuestion indicates an answer referencing a question outside
	// the submission's frozen allowed set.
	ErrInvalidQuestion = errors.New("answer: question not part of submission")
	// ErrDuplicateQuestion indicates the same question answered twice in one
	// batch.
	ErrDuplicateQuestion = errors.New("answer: duplicate question in batch")
	// ErrMissingRequiredQuestion indicates a required question left
	// unanswered.
	ErrMissingRequiredQuestion = errors.New("answer: required question unanswered")
)

// AssessmentOption customises AssessmentService behaviour.
type AssessmentOption func(*AssessmentService)

// WithAssessmentClock injects a custom clock primarily for testing.
func WithAssessmentClock(clock func() time.Time) AssessmentOption {
	return func(s *AssessmentService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// AssessmentService orchestrates the two candidate-facing operations: start
// (invite token to test or flow content) and submit (answer batch to scored,
// completed submission).
type AssessmentService struct {
	db          *gorm.DB
	invites     *InviteService
	catalog     *CatalogService
	submissions *SubmissionService
	candidates  *CandidateService
	flows       *FlowService
	now         func() time.Time
	log         *zap.Logger
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(
	db *gorm.DB,
	invites *InviteService,
	catalog *CatalogService,
	submissions *SubmissionService,
	candidates *CandidateService,
	flows *FlowService,
	opts ...AssessmentOption,
) (*AssessmentService, error) {
	if db == nil {
		return nil, errors.New("assessment service: db is required")
	}
	if invites == nil || catalog == nil || submissions == nil || candidates == nil || flows == nil {
		return nil, errors.New("assessment service: all collaborating services are required")
	}

	service := &AssessmentService{
		db:          db,
		invites:     invites,
		catalog:     catalog,
		submissions: submissions,
		candidates:  candidates,
		flows:       flows,
		now:         time.Now,
		log:         logger.WithModule("assessments"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// StartResult is the union returned by Start: a completed view, a
// single-test view, or a flow view.
type StartResult struct {
	Completed  bool               `json:"completed"`
	Invite     *models.Invite     `json:"invite,omitempty"`
	Test       *models.Test       `json:"test,omitempty"`
	Submission *models.Submission `json:"submission,omitempty"`
	Questions  []models.Question  `json:"questions,omitempty"`
	Flow       *FlowView          `json:"flow,omitempty"`

	// FlowItem enriches the completed view with the invite's target item.
	// Best effort only: lookup failures are logged, never propagated.
	FlowItem *models.FlowItem `json:"flow_item,omitempty"`
}

// Start resolves a candidate token and assembles whatever the candidate
// should see: the single test with its frozen question order, the full flow,
// or a completed view for repeat visits.
func (s *AssessmentService) Start(ctx context.Context, token, orgID string) (*StartResult, error) {
	invite, err := s.invites.Resolve(ctx, token, orgID)
	if err != nil {
		if errors.Is(err, ErrInviteCompleted) {
			return s.completedView(ctx, invite), nil
		}
		return nil, err
	}

	if invite.FlowItemID != nil {
		flowView, err := s.flows.Assemble(ctx, invite)
		if err != nil {
			return nil, err
		}
		return &StartResult{Invite: invite, Flow: flowView}, nil
	}

	return s.startSingleTest(ctx, invite)
}

func (s *AssessmentService) startSingleTest(ctx context.Context, invite *models.Invite) (*StartResult, error) {
	if invite.TestID == nil {
		return nil, ErrTestNotFound
	}

	test, err := s.catalog.GetTestWithQuestions(ctx, *invite.TestID, invite.OrgID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, ErrTestInactive
	}
	if len(test.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	submission, items, err := s.submissions.EnsureSubmission(ctx, SeedTarget{
		CandidateID: invite.CandidateID,
		Test:        test,
		Invite:      invite,
	})
	if err != nil {
		return nil, err
	}

	if invite.SubmissionID == nil {
		err := s.invites.LinkSubmission(ctx, invite.ID, submission.ID)
		switch {
		case err == nil:
			invite.SubmissionID = &submission.ID
		case errors.Is(err, errInviteAlreadyLinked):
			// A concurrent start linked its submission first; discard ours
			// and serve the frozen order of the winner.
			var fresh models.Invite
			if loadErr := s.db.WithContext(ctx).First(&fresh, "id = ?", invite.ID).Error; loadErr != nil {
				return nil, fmt.Errorf("assessment service: reload invite: %w", loadErr)
			}
			invite = &fresh
			submission, items, err = s.submissions.EnsureSubmission(ctx, SeedTarget{
				CandidateID: invite.CandidateID,
				Test:        test,
				Invite:      invite,
			})
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	return &StartResult{
		Invite:     invite,
		Test:       test,
		Submission: submission,
		Questions:  questionsInDisplayOrder(test.Questions, items),
	}, nil
}

func (s *AssessmentService) completedView(ctx context.Context, invite *models.Invite) *StartResult {
	result := &StartResult{Completed: true, Invite: invite}

	if invite == nil || invite.FlowItemID == nil {
		return result
	}

	var item models.FlowItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", *invite.FlowItemID).Error; err != nil {
		s.log.Warn("flow item lookup for completed invite failed",
			zap.String("invite_id", invite.ID),
			zap.Error(err),
		)
		return result
	}

	result.FlowItem = &item
	return result
}

// AnswerInput is one answered question within a submit batch.
type AnswerInput struct {
	QuestionID  string
	ValueText   *string
	ValueNumber *float64
}

// SubmitResult is returned after a successful answer submission.
type SubmitResult struct {
	Submission *models.Submission `json:"submission"`
	Answers    []models.Answer    `json:"answers"`
}

// Submit validates an answer batch against the submission's frozen allowed
// set and, on success, persists answers, scores motivations tests, advances
// invite completion and moves the candidate's pipeline status. Validation is
// an ordered pipeline: the first failing rule short-circuits with its own
// error. The completed-submission check runs last so structural errors stay
// distinguishable from late resubmission. Side effects after the answer
// write are at-least-once: a failure in scoring or completion does not roll
// the answers back.
func (s *AssessmentService) Submit(ctx context.Context, submissionID string, inputs []AnswerInput, token, orgID string) (*SubmitResult, error) {
	if len(inputs) == 0 {
		return nil, ErrNoAnswers
	}

	var invite *models.Invite
	inviteCompleted := false
	if token != "" {
		resolved, err := s.invites.Resolve(ctx, token, orgID)
		if err != nil {
			// Completion only blocks single-test submits; in flow mode the
			// invite completes before its final item's submit is retried.
			if !errors.Is(err, ErrInviteCompleted) {
				return nil, err
			}
			inviteCompleted = true
		}
		invite = resolved
	}

	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if invite != nil && submission.CandidateID != invite.CandidateID {
		return nil, ErrSubmissionNotLinkedToCandidate
	}

	singleTest := invite != nil && invite.FlowItemID == nil
	if singleTest {
		if inviteCompleted {
			return nil, ErrInviteCompleted
		}
		if invite.SubmissionID == nil || *invite.SubmissionID != submission.ID {
			return nil, ErrSubmissionNotLinkedToInvite
		}
	}

	var flow *models.Flow
	if submission.FlowItemID != nil {
		flow, err = s.resolveSubmissionFlow(ctx, submission)
		if err != nil {
			return nil, err
		}
	}

	allowed, err := s.submissions.Items(ctx, submission.ID)
	if err != nil {
		return nil, err
	}
	if err := validateBatch(inputs, allowed); err != nil {
		return nil, err
	}

	questions, err := s.loadQuestions(ctx, allowed)
	if err != nil {
		return nil, err
	}
	if err := checkRequiredAnswered(inputs, questions); err != nil {
		return nil, err
	}

	if submission.Completed() {
		return nil, ErrSubmissionAlreadyCompleted
	}

	answers, err := s.persistAnswers(ctx, submission.ID, inputs)
	if err != nil {
		return nil, err
	}

	if err := s.finalizeSubmission(ctx, submission, questions, answers); err != nil {
		return nil, err
	}

	s.trackCompletion(ctx, invite, submission, flow)

	if err := s.candidates.UpdateStatus(ctx, submission.CandidateID, models.CandidateStatusAssessmentSubmitted); err != nil {
		return nil, err
	}

	return &SubmitResult{Submission: submission, Answers: answers}, nil
}

func (s *AssessmentService) loadSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, "id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("assessment service: load submission: %w", err)
	}
	return &submission, nil
}

// resolveSubmissionFlow checks the flow-mode submit rules: the candidate has
// an offer, the offer has an active flow, and the submission's flow item is
// one of that flow's items.
func (s *AssessmentService) resolveSubmissionFlow(ctx context.Context, submission *models.Submission) (*models.Flow, error) {
	candidate, err := s.candidates.GetByID(ctx, submission.CandidateID)
	if err != nil {
		return nil, err
	}
	if candidate.OfferID == nil {
		return nil, ErrCandidateWithoutOffer
	}

	flow, err := s.flows.ActiveFlowForOffer(ctx, *candidate.OfferID)
	if err != nil {
		return nil, err
	}

	if !flowHasItem(flow, *submission.FlowItemID) {
		return nil, ErrSubmissionNotInFlow
	}

	return flow, nil
}

func validateBatch(inputs []AnswerInput, allowed []models.SubmissionItem) error {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, item := range allowed {
		allowedSet[item.QuestionID] = struct{}{}
	}

	for _, input := range inputs {
		if _, ok := allowedSet[input.QuestionID]; !ok {
			return ErrInvalidQuestion
		}
	}

	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		if _, dup := seen[input.QuestionID]; dup {
			return ErrDuplicateQuestion
		}
		seen[input.QuestionID] = struct{}{}
	}
	return nil
}

func checkRequiredAnswered(inputs []AnswerInput, questions []models.Question) error {
	answered := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		answered[input.QuestionID] = struct{}{}
	}

	for _, question := range questions {
		if !question.IsRequired {
			continue
		}
		if _, ok := answered[question.ID]; !ok {
			return ErrMissingRequiredQuestion
		}
	}
	return nil
}

func (s *AssessmentService) loadQuestions(ctx context.Context, items []models.SubmissionItem) ([]models.Question, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.QuestionID)
	}

	var questions []models.Question
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("assessment service: load questions: %w", err)
	}
	return questions, nil
}

func (s *AssessmentService) persistAnswers(ctx context.Context, submissionID string, inputs []AnswerInput) ([]models.Answer, error) {
	answers := make([]models.Answer, 0, len(inputs))
	for _, input := range inputs {
		answers = append(answers, models.Answer{
			SubmissionID: submissionID,
			QuestionID:   input.QuestionID,
			ValueText:    input.ValueText,
			ValueNumber:  input.ValueNumber,
		})
	}

	// Retried submits overwrite their own previous values instead of failing
	// on the (submission, question) uniqueness constraint.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value_text", "value_number", "updated_at"}),
		}).
		Create(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("assessment service: persist answers: %w", err)
	}
	return answers, nil
}

func (s *AssessmentService) finalizeSubmission(ctx context.Context, submission *models.Submission, questions []models.Question, answers []models.Answer) error {
	var test models.Test
	if err := s.db.WithContext(ctx).First(&test, "id = ?", submission.TestID).Error; err != nil {
		return fmt.Errorf("assessment service: load test: %w", err)
	}

	scorecard := ComputeMotivationsScore(&test, questions, answers)

	completedAt := s.now()
	updates := map[string]any{"completed_at": completedAt}
	if scorecard.Result != nil {
		payload, err := scorecard.Result.marshal()
		if err != nil {
			return fmt.Errorf("assessment service: encode scoring result: %w", err)
		}
		updates["numeric_score"] = *scorecard.NumericScore
		updates["max_score"] = *scorecard.MaxScore
		updates["scoring_result"] = payload
		submission.NumericScore = scorecard.NumericScore
		submission.MaxScore = scorecard.MaxScore
		submission.ScoringResult = payload
	}

	if err := s.db.WithContext(ctx).Model(submission).Updates(updates).Error; err != nil {
		return fmt.Errorf("assessment service: complete submission: %w", err)
	}

	submission.CompletedAt = &completedAt
	return nil
}

// trackCompletion decides when the invite flips to completed. Single-test
// invites complete immediately after one successful submission; flow invites
// complete only once every test-kind item has a completed submission. Video
// items never gate completion. Best effort: the submission is already
// accepted, so tracking failures are logged rather than surfaced.
func (s *AssessmentService) trackCompletion(ctx context.Context, invite *models.Invite, submission *models.Submission, flow *models.Flow) {
	if submission.FlowItemID == nil {
		s.completeInvite(ctx, invite, submission)
		return
	}

	done, err := s.allFlowTestsCompleted(ctx, flow, submission.CandidateID)
	if err != nil {
		s.log.Error("flow completion check failed",
			zap.String("submission_id", submission.ID),
			zap.Error(err),
		)
		return
	}
	if done {
		s.completeInvite(ctx, invite, submission)
	}
}

func (s *AssessmentService) completeInvite(ctx context.Context, invite *models.Invite, submission *models.Submission) {
	if invite == nil {
		// Tokenless submits still complete the invite when one is findable
		// through the submission linkage.
		found, err := s.findInviteForSubmission(ctx, submission)
		if err != nil {
			s.log.Warn("invite lookup for completion failed",
				zap.String("submission_id", submission.ID),
				zap.Error(err),
			)
			return
		}
		invite = found
	}
	if invite == nil {
		return
	}

	if err := s.invites.MarkCompleted(ctx, invite.ID); err != nil {
		s.log.Error("invite completion failed",
			zap.String("invite_id", invite.ID),
			zap.Error(err),
		)
	}
}

func (s *AssessmentService) findInviteForSubmission(ctx context.Context, submission *models.Submission) (*models.Invite, error) {
	var invite models.Invite

	query := s.db.WithContext(ctx)
	if submission.FlowItemID == nil {
		query = query.Where("submission_id = ?", submission.ID)
	} else {
		query = query.Where("candidate_id = ? AND flow_item_id IS NOT NULL", submission.CandidateID)
	}

	if err := query.First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

// allFlowTestsCompleted reports whether every test-kind item of the flow has
// a completed submission for the candidate.
func (s *AssessmentService) allFlowTestsCompleted(ctx context.Context, flow *models.Flow, candidateID string) (bool, error) {
	if flow == nil {
		return false, errors.New("assessment service: flow is required for completion check")
	}

	for _, item := range flow.Items {
		if item.Kind != models.FlowItemKindTest {
			continue
		}

		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.Submission{}).
			Where("candidate_id = ? AND flow_item_id = ? AND completed_at IS NOT NULL", candidateID, item.ID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}
