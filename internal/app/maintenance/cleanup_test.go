package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/database/testutil"
	"github.com/blueberry-insights/talentflow/internal/models"
)

func seedSweepFixtures(t *testing.T, db *gorm.DB) (org *models.Organization, candidate *models.Candidate, test *models.Test) {
	t.Helper()

	org = &models.Organization{Name: "Sweep Org", Slug: "sweep-org"}
	require.NoError(t, db.Create(org).Error)

	candidate = &models.Candidate{OrgID: org.ID, Name: "Sam", Email: "sam@example.com", Status: models.CandidateStatusAssessmentSent}
	require.NoError(t, db.Create(candidate).Error)

	test = &models.Test{OrgID: org.ID, Name: "Motivations", Type: models.TestTypeMotivations, IsActive: true}
	require.NoError(t, db.Create(test).Error)
	return org, candidate, test
}

func TestSweeperPurgesStaleInvites(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	org, candidate, test := seedSweepFixtures(t, db)

	stale := &models.Invite{
		OrgID: org.ID, CandidateID: candidate.ID, TestID: &test.ID,
		TokenHash: "stale", Status: models.InviteStatusPending,
		ExpiresAt: now.Add(-40 * 24 * time.Hour),
	}
	recentlyExpired := &models.Invite{
		OrgID: org.ID, CandidateID: candidate.ID, TestID: &test.ID,
		TokenHash: "recent", Status: models.InviteStatusPending,
		ExpiresAt: now.Add(-time.Hour),
	}
	completed := &models.Invite{
		OrgID: org.ID, CandidateID: candidate.ID, TestID: &test.ID,
		TokenHash: "done", Status: models.InviteStatusCompleted,
		ExpiresAt: now.Add(-40 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Create(recentlyExpired).Error)
	require.NoError(t, db.Create(completed).Error)

	sweeper := NewSweeper(db, WithNow(func() time.Time { return now }))
	stats, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Invites)

	var remaining []models.Invite
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, invite := range remaining {
		require.NotEqual(t, "stale", invite.TokenHash)
	}
}

func TestSweeperPurgesUnseededSubmissions(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_, candidate, test := seedSweepFixtures(t, db)

	question := &models.Question{TestID: test.ID, Label: "Q", Kind: models.QuestionKindScale, IsActive: true}
	require.NoError(t, db.Create(question).Error)

	old := now.Add(-10 * 24 * time.Hour)

	// Unseeded and old: swept.
	orphan := &models.Submission{TestID: test.ID, CandidateID: candidate.ID}
	require.NoError(t, db.Create(orphan).Error)
	require.NoError(t, db.Model(orphan).Update("created_at", old).Error)

	// Seeded and old: kept, the frozen order is the candidate's attempt.
	itemID := "11111111-1111-1111-1111-111111111111"
	seeded := &models.Submission{TestID: test.ID, CandidateID: candidate.ID, FlowItemID: &itemID}
	require.NoError(t, db.Create(seeded).Error)
	require.NoError(t, db.Model(seeded).Update("created_at", old).Error)
	require.NoError(t, db.Create(&models.SubmissionItem{SubmissionID: seeded.ID, QuestionID: question.ID, DisplayIndex: 1}).Error)

	// Unseeded but fresh: kept, the start may still be in flight.
	otherItemID := "22222222-2222-2222-2222-222222222222"
	fresh := &models.Submission{TestID: test.ID, CandidateID: candidate.ID, FlowItemID: &otherItemID}
	require.NoError(t, db.Create(fresh).Error)

	sweeper := NewSweeper(db, WithNow(func() time.Time { return now }))
	stats, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Submissions)

	var remaining []models.Submission
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, submission := range remaining {
		require.NotEqual(t, orphan.ID, submission.ID)
	}
}

func TestSweeperRetentionOptions(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	org, candidate, test := seedSweepFixtures(t, db)

	invite := &models.Invite{
		OrgID: org.ID, CandidateID: candidate.ID, TestID: &test.ID,
		TokenHash: "short-retention", Status: models.InviteStatusPending,
		ExpiresAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, db.Create(invite).Error)

	sweeper := NewSweeper(db,
		WithNow(func() time.Time { return now }),
		WithInviteRetention(time.Hour),
	)
	stats, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Invites)
}

func TestSweeperScheduledRun(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	sweeper := NewSweeper(db,
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
		WithSchedule("@every 1h"),
	)
	require.NoError(t, sweeper.Start())

	stopCtx := sweeper.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
