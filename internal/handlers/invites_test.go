package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/pkg/response"
)

func TestInviteCreateValidation(t *testing.T) {
	f := newHandlerFixture(t)
	org := f.seedOrg(t)
	candidate := f.seedCandidate(t, org)

	t.Run("missing candidate", func(t *testing.T) {
		w := f.doJSON(t, http.MethodPost, "/api/invites", map[string]any{"org_id": org.ID})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no target", func(t *testing.T) {
		body := map[string]any{"org_id": org.ID, "candidate_id": candidate.ID}
		w := f.doJSON(t, http.MethodPost, "/api/invites", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("both targets", func(t *testing.T) {
		test := f.seedMotivationsTest(t, org, 1)
		body := map[string]any{
			"org_id":       org.ID,
			"candidate_id": candidate.ID,
			"test_id":      test.ID,
			"flow_item_id": "11111111-1111-1111-1111-111111111111",
		}
		w := f.doJSON(t, http.MethodPost, "/api/invites", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInviteCreateReturnsLink(t *testing.T) {
	f := newHandlerFixture(t)
	org := f.seedOrg(t)
	candidate := f.seedCandidate(t, org)
	test := f.seedMotivationsTest(t, org, 2)

	body := map[string]any{"org_id": org.ID, "candidate_id": candidate.ID, "test_id": test.ID}
	w := f.doJSON(t, http.MethodPost, "/api/invites", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data struct {
			Token  string `json:"token"`
			Link   string `json:"link"`
			Invite struct {
				ID string `json:"id"`
			} `json:"invite"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)
	require.Contains(t, envelope.Data.Link, "https://apply.example.com/assessments/")
	require.Contains(t, envelope.Data.Link, envelope.Data.Token)

	// The digest never leaves the server.
	require.NotContains(t, w.Body.String(), "token_hash")
}

func TestInviteListAndRevoke(t *testing.T) {
	f := newHandlerFixture(t)
	org := f.seedOrg(t)
	candidate := f.seedCandidate(t, org)
	test := f.seedMotivationsTest(t, org, 2)
	f.createTestInvite(t, org, candidate, test)

	w := f.doJSON(t, http.MethodGet, "/api/invites?org_id="+org.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed struct {
		Data struct {
			Invites []models.Invite `json:"invites"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Invites, 1)
	inviteID := listed.Data.Invites[0].ID

	w = f.doJSON(t, http.MethodDelete, "/api/invites/"+inviteID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.doJSON(t, http.MethodGet, "/api/invites?org_id="+org.ID+"&status=revoked", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Invites, 1)
	require.Equal(t, models.InviteStatusRevoked, listed.Data.Invites[0].Status)
}

func TestInviteListRequiresOrg(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.doJSON(t, http.MethodGet, "/api/invites", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInviteRevokeUnknown(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.doJSON(t, http.MethodDelete, "/api/invites/00000000-0000-0000-0000-000000000000", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "invite.not_found", payload.Error.Code)
}
