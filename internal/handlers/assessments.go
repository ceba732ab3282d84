package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blueberry-insights/talentflow/internal/services"
	appErrors "github.com/blueberry-insights/talentflow/pkg/errors"
	"github.com/blueberry-insights/talentflow/pkg/metrics"
	"github.com/blueberry-insights/talentflow/pkg/response"
)

// AssessmentHandler exposes the two candidate-facing operations: opening an
// invite link and submitting an answer batch.
type AssessmentHandler struct {
	assessments *services.AssessmentService
}

// NewAssessmentHandler constructs an AssessmentHandler.
func NewAssessmentHandler(assessments *services.AssessmentService) (*AssessmentHandler, error) {
	if assessments == nil {
		return nil, errors.New("assessment handler: assessment service is required")
	}
	return &AssessmentHandler{assessments: assessments}, nil
}

// Start handles GET /api/assessments/:token.
func (h *AssessmentHandler) Start(c *gin.Context) {
	result, err := h.assessments.Start(requestContext(c), c.Param("token"), orgScope(c))
	if err != nil {
		metrics.AssessmentStarts.WithLabelValues("unknown", "failure").Inc()
		response.Error(c, mapAssessmentError(err))
		return
	}

	metrics.AssessmentStarts.WithLabelValues(startMode(result), "success").Inc()
	response.Success(c, http.StatusOK, result)
}

type answerPayload struct {
	QuestionID  string   `json:"question_id" validate:"required"`
	ValueText   *string  `json:"value_text"`
	ValueNumber *float64 `json:"value_number"`
}

type submitAnswersRequest struct {
	Token   string          `json:"token"`
	Answers []answerPayload `json:"answers" validate:"required,min=1,dive"`
}

// Submit handles POST /api/submissions/:id/answers.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req submitAnswersRequest
	if !bindAndValidate(c, &req) {
		return
	}

	inputs := make([]services.AnswerInput, 0, len(req.Answers))
	for _, answer := range req.Answers {
		inputs = append(inputs, services.AnswerInput{
			QuestionID:  answer.QuestionID,
			ValueText:   answer.ValueText,
			ValueNumber: answer.ValueNumber,
		})
	}

	result, err := h.assessments.Submit(requestContext(c), c.Param("id"), inputs, req.Token, orgScope(c))
	if err != nil {
		metrics.AnswerSubmissions.WithLabelValues("failure").Inc()
		response.Error(c, mapAssessmentError(err))
		return
	}

	metrics.AnswerSubmissions.WithLabelValues("success").Inc()
	metrics.ScoringOutcomes.WithLabelValues(scoringLevelLabel(result)).Inc()
	response.Success(c, http.StatusOK, result)
}

func startMode(result *services.StartResult) string {
	switch {
	case result.Completed:
		return "completed"
	case result.Flow != nil:
		return "flow"
	default:
		return "test"
	}
}

func scoringLevelLabel(result *services.SubmitResult) string {
	if result.Submission == nil || len(result.Submission.ScoringResult) == 0 {
		return "none"
	}

	var scored services.ScoreResult
	if err := json.Unmarshal(result.Submission.ScoringResult, &scored); err != nil || scored.Level == "" {
		return "none"
	}
	return scored.Level
}

// mapAssessmentError translates service sentinels into API errors with stable
// machine-readable codes.
func mapAssessmentError(err error) error {
	switch {
	case errors.Is(err, services.ErrInviteNotFound):
		return appErrors.NewNotFound("invite.not_found", "Invite not found")
	case errors.Is(err, services.ErrInviteOrgMismatch):
		return appErrors.New("invite.org_mismatch", "Invite belongs to a different organization", http.StatusForbidden)
	case errors.Is(err, services.ErrInviteExpired):
		return appErrors.New("invite.expired", "Invite link has expired", http.StatusForbidden)
	case errors.Is(err, services.ErrInviteRevoked):
		return appErrors.New("invite.revoked", "Invite has been revoked", http.StatusForbidden)
	case errors.Is(err, services.ErrInviteCompleted):
		return appErrors.NewConflict("invite.completed", "Assessment already completed")
	case errors.Is(err, services.ErrTestNotFound):
		return appErrors.NewNotFound("test.not_found", "Test not found")
	case errors.Is(err, services.ErrTestInactive):
		return appErrors.NewConflict("test.inactive", "Test is no longer active")
	case errors.Is(err, services.ErrNoQuestions):
		return appErrors.NewConflict("test.no_questions", "Test has no questions to present")
	case errors.Is(err, services.ErrFlowNotFound):
		return appErrors.NewNotFound("flow.not_found", "Assessment flow not found")
	case errors.Is(err, services.ErrCandidateWithoutOffer):
		return appErrors.NewConflict("candidate.no_offer", "Candidate has no associated offer")
	case errors.Is(err, services.ErrCandidateNotFound):
		return appErrors.NewNotFound("candidate.not_found", "Candidate not found")
	case errors.Is(err, services.ErrSubmissionNotFound):
		return appErrors.NewNotFound("submission.not_found", "Submission not found")
	case errors.Is(err, services.ErrSubmissionAlreadyCompleted):
		return appErrors.NewConflict("submission.completed", "Submission already completed")
	case errors.Is(err, services.ErrSubmissionNotLinkedToCandidate):
		return appErrors.New("submission.wrong_candidate", "Submission belongs to a different candidate", http.StatusForbidden)
	case errors.Is(err, services.ErrSubmissionNotLinkedToInvite):
		return appErrors.New("submission.not_linked", "Submission is not linked to this invite", http.StatusForbidden)
	case errors.Is(err, services.ErrSubmissionNotInFlow):
		return appErrors.New("submission.not_in_flow", "Submission is not part of the active flow", http.StatusForbidden)
	case errors.Is(err, services.ErrNoAnswers):
		return appErrors.NewBadRequest("Answer batch must not be empty")
	case errors.Is(err, services.ErrInvalidQuestion):
		return appErrors.New("answer.invalid_question", "Answer references a question outside this submission", http.StatusBadRequest)
	case errors.Is(err, services.ErrDuplicateQuestion):
		return appErrors.New("answer.duplicate_question", "Answer batch contains the same question twice", http.StatusBadRequest)
	case errors.Is(err, services.ErrMissingRequiredQuestion):
		return appErrors.New("answer.missing_required", "A required question was left unanswered", http.StatusBadRequest)
	default:
		return err
	}
}
