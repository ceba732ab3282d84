package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openModelTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&Organization{}, &Offer{}, &Candidate{}, &Test{}, &Question{},
		&Flow{}, &FlowItem{}, &Invite{}, &Submission{}, &SubmissionItem{}, &Answer{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestBaseModelGeneratesUUID(t *testing.T) {
	db := openModelTestDB(t)

	org := Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&org).Error)
	require.NotEmpty(t, org.ID)
}

func TestInviteExpiredIsDerived(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	invite := Invite{Status: InviteStatusPending, ExpiresAt: now.Add(-time.Minute)}
	require.True(t, invite.Expired(now))
	require.Equal(t, InviteStatusPending, invite.Status)

	invite.ExpiresAt = now.Add(time.Minute)
	require.False(t, invite.Expired(now))
}

func TestSubmissionUniquePerCandidateFlowItem(t *testing.T) {
	db := openModelTestDB(t)

	itemID := "11111111-1111-1111-1111-111111111111"
	first := Submission{TestID: "22222222-2222-2222-2222-222222222222", CandidateID: "33333333-3333-3333-3333-333333333333", FlowItemID: &itemID}
	require.NoError(t, db.Create(&first).Error)

	dup := Submission{TestID: first.TestID, CandidateID: first.CandidateID, FlowItemID: &itemID}
	require.Error(t, db.Create(&dup).Error)
}

func TestAnswerUniquePerSubmissionQuestion(t *testing.T) {
	db := openModelTestDB(t)

	answer := Answer{SubmissionID: "44444444-4444-4444-4444-444444444444", QuestionID: "55555555-5555-5555-5555-555555555555"}
	require.NoError(t, db.Create(&answer).Error)

	dup := Answer{SubmissionID: answer.SubmissionID, QuestionID: answer.QuestionID}
	require.Error(t, db.Create(&dup).Error)
}
