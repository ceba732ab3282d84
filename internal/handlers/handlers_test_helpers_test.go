package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/database/testutil"
	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/internal/services"
)

type handlerFixture struct {
	db      *gorm.DB
	invites *services.InviteService
	router  *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	invites, err := services.NewInviteService(db, services.WithInviteBaseURL("https://apply.example.com"))
	require.NoError(t, err)
	catalog, err := services.NewCatalogService(db)
	require.NoError(t, err)
	submissions, err := services.NewSubmissionService(db)
	require.NoError(t, err)
	candidates, err := services.NewCandidateService(db)
	require.NoError(t, err)
	flows, err := services.NewFlowService(db, catalog, submissions, candidates)
	require.NoError(t, err)
	assessments, err := services.NewAssessmentService(db, invites, catalog, submissions, candidates, flows)
	require.NoError(t, err)

	assessmentHandler, err := NewAssessmentHandler(assessments)
	require.NoError(t, err)
	inviteHandler, err := NewInviteHandler(invites)
	require.NoError(t, err)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/assessments/:token", assessmentHandler.Start)
	api.POST("/submissions/:id/answers", assessmentHandler.Submit)
	api.POST("/invites", inviteHandler.Create)
	api.GET("/invites", inviteHandler.List)
	api.DELETE("/invites/:id", inviteHandler.Revoke)
	api.POST("/invites/:id/link", inviteHandler.Link)

	return &handlerFixture{db: db, invites: invites, router: router}
}

func (f *handlerFixture) seedOrg(t *testing.T) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: "Acme Talent", Slug: "acme-" + uuid.NewString()[:8]}
	require.NoError(t, f.db.Create(org).Error)
	return org
}

func (f *handlerFixture) seedCandidate(t *testing.T, org *models.Organization) *models.Candidate {
	t.Helper()
	candidate := &models.Candidate{
		OrgID:  org.ID,
		Name:   "Robin Vega",
		Email:  "robin@example.com",
		Status: models.CandidateStatusAssessmentSent,
	}
	require.NoError(t, f.db.Create(candidate).Error)
	return candidate
}

func (f *handlerFixture) seedMotivationsTest(t *testing.T, org *models.Organization, questionCount int) *models.Test {
	t.Helper()
	test := &models.Test{OrgID: org.ID, Name: "Motivations", Type: models.TestTypeMotivations, IsActive: true}
	require.NoError(t, f.db.Create(test).Error)

	for i := 0; i < questionCount; i++ {
		question := &models.Question{
			TestID:        test.ID,
			Label:         "How strongly do you agree?",
			Kind:          models.QuestionKindScale,
			DimensionCode: "drive",
			IsActive:      true,
		}
		require.NoError(t, f.db.Create(question).Error)
		test.Questions = append(test.Questions, *question)
	}
	return test
}
