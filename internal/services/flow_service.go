package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/pkg/logger"
)

var (
	// ErrCandidateWithoutOffer indicates a flow invite whose candidate has no
	// associated offer to resolve a flow through.
	ErrCandidateWithoutOffer = errors.New("flow: candidate has no offer")
	// ErrFlowNotFound indicates no active flow exists for the candidate's
	// offer, or the invite no longer maps onto a real flow item.
	ErrFlowNotFound = errors.New("flow: not found")
)

// FlowItemView is one assembled step of a flow. Video items pass through
// unchanged; test items carry their definition, the frozen question order
// and the candidate's submission.
type FlowItemView struct {
	Item       models.FlowItem    `json:"item"`
	Test       *models.Test       `json:"test,omitempty"`
	Questions  []models.Question  `json:"questions,omitempty"`
	Submission *models.Submission `json:"submission,omitempty"`
}

// FlowView is the fully assembled flow returned to a candidate.
// CurrentItemIndex always points at the first item: rendering restarts from
// the top on every visit.
type FlowView struct {
	Flow             models.Flow    `json:"flow"`
	Items            []FlowItemView `json:"items"`
	CurrentItemIndex int            `json:"current_item_index"`
}

// FlowService assembles the full ordered item list for flow-mode invites.
type FlowService struct {
	db          *gorm.DB
	catalog     *CatalogService
	submissions *SubmissionService
	candidates  *CandidateService
	log         *zap.Logger
}

// NewFlowService constructs a FlowService.
func NewFlowService(db *gorm.DB, catalog *CatalogService, submissions *SubmissionService, candidates *CandidateService) (*FlowService, error) {
	if db == nil {
		return nil, errors.New("flow service: db is required")
	}
	if catalog == nil || submissions == nil || candidates == nil {
		return nil, errors.New("flow service: catalog, submission and candidate services are required")
	}
	return &FlowService{
		db:          db,
		catalog:     catalog,
		submissions: submissions,
		candidates:  candidates,
		log:         logger.WithModule("flows"),
	}, nil
}

// ActiveFlowForOffer returns the offer's active flow with items ordered by
// position.
func (s *FlowService) ActiveFlowForOffer(ctx context.Context, offerID string) (*models.Flow, error) {
	var flow models.Flow
	err := s.db.WithContext(ctx).
		Where("offer_id = ? AND is_active = ?", offerID, true).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&flow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlowNotFound
		}
		return nil, fmt.Errorf("flow service: load flow: %w", err)
	}
	return &flow, nil
}

// Assemble builds the ordered item list for a flow-mode invite. The invite's
// own target item only validates that the invite still maps onto a real flow
// item; the entry point is always the flow's first item. Guard rails run
// once, on the entry item only: its test must exist, be active, have at
// least one question and have produced a submission, else Assemble fails
// before returning any content.
func (s *FlowService) Assemble(ctx context.Context, invite *models.Invite) (*FlowView, error) {
	if invite == nil || invite.FlowItemID == nil {
		return nil, ErrFlowNotFound
	}

	candidate, err := s.candidates.GetByID(ctx, invite.CandidateID)
	if err != nil {
		return nil, err
	}
	if candidate.OfferID == nil {
		return nil, ErrCandidateWithoutOffer
	}

	flow, err := s.ActiveFlowForOffer(ctx, *candidate.OfferID)
	if err != nil {
		return nil, err
	}

	if !flowHasItem(flow, *invite.FlowItemID) {
		return nil, ErrFlowNotFound
	}

	views := make([]FlowItemView, 0, len(flow.Items))
	for index, item := range flow.Items {
		view := FlowItemView{Item: item}

		if item.Kind == models.FlowItemKindTest {
			enriched, err := s.enrichTestItem(ctx, candidate, flow, item, index == 0)
			if err != nil {
				return nil, err
			}
			view = *enriched
		}

		views = append(views, view)
	}

	return &FlowView{
		Flow:             *flow,
		Items:            views,
		CurrentItemIndex: 0,
	}, nil
}

func (s *FlowService) enrichTestItem(ctx context.Context, candidate *models.Candidate, flow *models.Flow, item models.FlowItem, isEntry bool) (*FlowItemView, error) {
	view := FlowItemView{Item: item}

	if item.TestID == nil {
		if isEntry {
			return nil, ErrTestNotFound
		}
		s.log.Warn("flow test item without test reference",
			zap.String("flow_id", flow.ID),
			zap.String("flow_item_id", item.ID),
		)
		return &view, nil
	}

	// Flows may present tests owned by another organization, so lookups go
	// through the shared catalog.
	test, err := s.catalog.GetCatalogTestWithQuestions(ctx, *item.TestID)
	if err != nil {
		return nil, err
	}
	view.Test = test

	if isEntry {
		if !test.IsActive {
			return nil, ErrTestInactive
		}
		if len(test.Questions) == 0 {
			return nil, ErrNoQuestions
		}
	}
	if len(test.Questions) == 0 {
		return &view, nil
	}

	itemID := item.ID
	submission, items, err := s.submissions.EnsureSubmission(ctx, SeedTarget{
		CandidateID: candidate.ID,
		Test:        test,
		FlowID:      &flow.ID,
		FlowItemID:  &itemID,
	})
	if err != nil {
		return nil, err
	}

	view.Submission = submission
	view.Questions = questionsInDisplayOrder(test.Questions, items)
	return &view, nil
}

func flowHasItem(flow *models.Flow, itemID string) bool {
	for _, item := range flow.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// questionsInDisplayOrder maps the frozen submission items back onto
// question definitions, preserving the per-candidate order.
func questionsInDisplayOrder(questions []models.Question, items []models.SubmissionItem) []models.Question {
	byID := make(map[string]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	ordered := make([]models.Question, 0, len(items))
	for _, item := range items {
		if question, ok := byID[item.QuestionID]; ok {
			ordered = append(ordered, question)
		}
	}
	return ordered
}
