package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusflow/models"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func twoStageRequest(t *testing.T) *models.ApprovalRequest {
	t.Helper()
	req, err := NewRequest(models.RequestTypeNoDues,
		models.Submitter{Name: "Asha Rao", Email: "asha@lnmiit.ac.in"},
		[]models.Recipient{
			{Order: 0, Name: "Library", Email: "a@lnmiit.ac.in", Role: "faculty"},
			{Order: 1, Name: "Accounts", Email: "b@lnmiit.ac.in", Role: "faculty"},
		}, testNow)
	require.NoError(t, err)
	return req
}

func TestNewRequestValidation(t *testing.T) {
	submitter := models.Submitter{Name: "Asha Rao", Email: "asha@lnmiit.ac.in"}

	t.Run("rejects empty flow", func(t *testing.T) {
		_, err := NewRequest(models.RequestTypeNoDues, submitter, nil, testNow)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("rejects duplicate orders", func(t *testing.T) {
		_, err := NewRequest(models.RequestTypeNoDues, submitter, []models.Recipient{
			{Order: 0, Email: "a@lnmiit.ac.in"},
			{Order: 0, Email: "b@lnmiit.ac.in"},
		}, testNow)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("rejects gaps in orders", func(t *testing.T) {
		_, err := NewRequest(models.RequestTypeNoDues, submitter, []models.Recipient{
			{Order: 0, Email: "a@lnmiit.ac.in"},
			{Order: 2, Email: "b@lnmiit.ac.in"},
		}, testNow)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("sorts unordered flow", func(t *testing.T) {
		req, err := NewRequest(models.RequestTypeNoDues, submitter, []models.Recipient{
			{Order: 1, Email: "b@lnmiit.ac.in"},
			{Order: 0, Email: "a@lnmiit.ac.in"},
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "a@lnmiit.ac.in", req.RecipientsFlow[0].Email)
		assert.Equal(t, models.StatusPending, req.Status)
		assert.Equal(t, 0, req.CurrentStage)
	})
}

func TestApproveFullChain(t *testing.T) {
	req := twoStageRequest(t)

	require.NoError(t, Approve(req, "a@lnmiit.ac.in", "dues cleared", testNow))
	assert.Equal(t, models.StatusInProgress, req.Status)
	assert.Equal(t, 1, req.CurrentStage)
	require.Len(t, req.Approvals, 1)
	assert.Equal(t, "a@lnmiit.ac.in", req.Approvals[0].Email)

	require.NoError(t, Approve(req, "b@lnmiit.ac.in", "", testNow))
	assert.Equal(t, models.StatusCompleted, req.Status)
	assert.Equal(t, 2, req.CurrentStage)
	assert.Len(t, req.Approvals, 2)
}

func TestOnlyCurrentStageRecipientMayAct(t *testing.T) {
	req := twoStageRequest(t)

	err := Approve(req, "b@lnmiit.ac.in", "", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindNotAuthorized, models.KindOf(err))

	// nothing changed
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, 0, req.CurrentStage)
	assert.Empty(t, req.Approvals)

	err = Reject(req, "asha@lnmiit.ac.in", "not my turn", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindNotAuthorized, models.KindOf(err))
}

func TestStageAdvancesByExactlyOne(t *testing.T) {
	req := twoStageRequest(t)
	prev := req.CurrentStage
	require.NoError(t, Approve(req, "a@lnmiit.ac.in", "", testNow))
	assert.Equal(t, prev+1, req.CurrentStage)

	// a second approval by the same recipient must not double-advance
	err := Approve(req, "a@lnmiit.ac.in", "", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindNotAuthorized, models.KindOf(err))
	assert.Equal(t, prev+1, req.CurrentStage)
}

func TestRejectTerminatesChain(t *testing.T) {
	req := twoStageRequest(t)

	require.NoError(t, Reject(req, "a@lnmiit.ac.in", "missing doc", testNow))
	assert.Equal(t, models.StatusRejected, req.Status)
	require.NotNil(t, req.Rejection)
	assert.Equal(t, "missing doc", req.Rejection.Reason)
	assert.Equal(t, "a@lnmiit.ac.in", req.Rejection.RejectedBy)
	assert.Equal(t, 0, req.CurrentStage)

	err := Approve(req, "b@lnmiit.ac.in", "", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))
	assert.Empty(t, req.Approvals)
}

func TestRejectRequiresReason(t *testing.T) {
	req := twoStageRequest(t)
	err := Reject(req, "a@lnmiit.ac.in", "   ", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
	assert.Equal(t, models.StatusPending, req.Status)
}

func TestTerminalRequestsAreImmutable(t *testing.T) {
	req := twoStageRequest(t)
	require.NoError(t, Approve(req, "a@lnmiit.ac.in", "", testNow))
	require.NoError(t, Approve(req, "b@lnmiit.ac.in", "", testNow))
	require.Equal(t, models.StatusCompleted, req.Status)

	snapshotStage := req.CurrentStage
	snapshotApprovals := len(req.Approvals)

	err := Approve(req, "b@lnmiit.ac.in", "", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))

	err = Reject(req, "b@lnmiit.ac.in", "too late", testNow)
	require.Error(t, err)
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))

	assert.Equal(t, snapshotStage, req.CurrentStage)
	assert.Len(t, req.Approvals, snapshotApprovals)
	assert.Nil(t, req.Rejection)
}

func TestApproverEmailMatchIsCaseInsensitive(t *testing.T) {
	req := twoStageRequest(t)
	require.NoError(t, Approve(req, "A@LNMIIT.AC.IN", "", testNow))
	assert.Equal(t, 1, req.CurrentStage)
}
