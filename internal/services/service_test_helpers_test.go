package services

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Organization{}, &models.Offer{}, &models.Candidate{},
		&models.Test{}, &models.Question{}, &models.Flow{}, &models.FlowItem{},
		&models.Invite{}, &models.Submission{}, &models.SubmissionItem{}, &models.Answer{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func seedOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: "Blueberry Insights", Slug: "blueberry-" + uuid.NewString()[:8]}
	require.NoError(t, db.Create(org).Error)
	return org
}

func seedCandidate(t *testing.T, db *gorm.DB, org *models.Organization, offerID *string) *models.Candidate {
	t.Helper()

	candidate := &models.Candidate{
		OrgID:   org.ID,
		Name:    "Jamie Doe",
		Email:   "jamie@example.com",
		Status:  models.CandidateStatusAssessmentSent,
		OfferID: offerID,
	}
	require.NoError(t, db.Create(candidate).Error)
	return candidate
}

func seedOffer(t *testing.T, db *gorm.DB, org *models.Organization) *models.Offer {
	t.Helper()

	offer := &models.Offer{OrgID: org.ID, Title: "Backend Engineer"}
	require.NoError(t, db.Create(offer).Error)
	return offer
}

func seedTest(t *testing.T, db *gorm.DB, org *models.Organization, testType string, active bool) *models.Test {
	t.Helper()

	test := &models.Test{OrgID: org.ID, Name: "Motivations Assessment", Type: testType, IsActive: active}
	require.NoError(t, db.Create(test).Error)
	return test
}

type questionSpec struct {
	kind      string
	dimension string
	reversed  bool
	required  bool
	min       *float64
	max       *float64
}

func seedQuestion(t *testing.T, db *gorm.DB, test *models.Test, spec questionSpec) *models.Question {
	t.Helper()

	question := &models.Question{
		TestID:        test.ID,
		Label:         "How strongly do you agree?",
		Kind:          spec.kind,
		DimensionCode: spec.dimension,
		IsReversed:    spec.reversed,
		IsRequired:    spec.required,
		MinValue:      spec.min,
		MaxValue:      spec.max,
		IsActive:      true,
	}
	require.NoError(t, db.Create(question).Error)
	return question
}

func seedScaleQuestions(t *testing.T, db *gorm.DB, test *models.Test, count int) []models.Question {
	t.Helper()

	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		q := seedQuestion(t, db, test, questionSpec{kind: models.QuestionKindScale, dimension: "drive"})
		questions = append(questions, *q)
	}
	return questions
}

func seedFlow(t *testing.T, db *gorm.DB, offer *models.Offer, testIDs ...string) *models.Flow {
	t.Helper()

	flow := &models.Flow{OfferID: offer.ID, Name: "Hiring Flow", IsActive: true}
	require.NoError(t, db.Create(flow).Error)

	for i, testID := range testIDs {
		id := testID
		item := &models.FlowItem{FlowID: flow.ID, Position: i, Kind: models.FlowItemKindTest, TestID: &id}
		require.NoError(t, db.Create(item).Error)
		flow.Items = append(flow.Items, *item)
	}
	return flow
}

func seedVideoItem(t *testing.T, db *gorm.DB, flow *models.Flow, position int) *models.FlowItem {
	t.Helper()

	item := &models.FlowItem{FlowID: flow.ID, Position: position, Kind: models.FlowItemKindVideo, VideoURL: "https://cdn.example.com/welcome.mp4"}
	require.NoError(t, db.Create(item).Error)
	flow.Items = append(flow.Items, *item)
	return item
}

func seededRand(seed int64) func(int) int {
	r := rand.New(rand.NewSource(seed))
	return r.Intn
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func ptr[T any](v T) *T { return &v }
