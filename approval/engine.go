// approval/engine.go
//
// Sequential multi-recipient approval chain shared by no-dues, event
// and MOU requests. The engine mutates in-memory request records only;
// persistence and the compare-and-swap write belong to the caller.
package approval

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"campusflow/models"
)

// ValidateFlow checks that a recipient flow is non-empty, sorted, and
// carries contiguous order values starting at 0.
func ValidateFlow(flow []models.Recipient) error {
	if len(flow) == 0 {
		return models.ErrValidation("recipients flow must not be empty")
	}
	for i, recipient := range flow {
		if recipient.Order != i {
			return models.ErrValidation(fmt.Sprintf(
				"recipient orders must be contiguous from 0, got %d at index %d", recipient.Order, i))
		}
		if strings.TrimSpace(recipient.Email) == "" {
			return models.ErrValidation(fmt.Sprintf("recipient at order %d has no email", i))
		}
	}
	return nil
}

// NewRequest builds a fresh request at stage 0. The flow is sorted by
// order before validation so callers may pass recipients in any order.
func NewRequest(requestType string, submittedBy models.Submitter, flow []models.Recipient, now time.Time) (*models.ApprovalRequest, error) {
	if strings.TrimSpace(submittedBy.Email) == "" {
		return nil, models.ErrValidation("submitter email is required")
	}

	sorted := make([]models.Recipient, len(flow))
	copy(sorted, flow)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	if err := ValidateFlow(sorted); err != nil {
		return nil, err
	}

	return &models.ApprovalRequest{
		Type:           requestType,
		SubmittedBy:    submittedBy,
		RecipientsFlow: sorted,
		CurrentStage:   0,
		Status:         models.StatusPending,
		Approvals:      []models.ApprovalRecord{},
		SubmittedAt:    now,
		UpdatedAt:      now,
	}, nil
}

// CanAct reports whether actorEmail is allowed to act on the request
// right now: the request must be live and the actor must be the
// recipient at the current stage. No out-of-order action, no skipping.
func CanAct(req *models.ApprovalRequest, actorEmail string) error {
	if req.Status != models.StatusPending && req.Status != models.StatusInProgress {
		return models.ErrInvalidState(fmt.Sprintf("request is %s and can no longer be acted on", req.Status))
	}
	recipient := req.CurrentRecipient()
	if recipient == nil {
		return models.ErrInvalidState("request has no pending stage")
	}
	if !strings.EqualFold(recipient.Email, actorEmail) {
		return models.ErrNotAuthorized(fmt.Sprintf(
			"stage %d is awaiting action from %s", req.CurrentStage, recipient.Email))
	}
	return nil
}

// Approve records the current stage as approved and advances the stage
// pointer. The final approval flips the request to completed.
func Approve(req *models.ApprovalRequest, actorEmail, comments string, now time.Time) error {
	if err := CanAct(req, actorEmail); err != nil {
		return err
	}

	recipient := req.CurrentRecipient()
	req.Approvals = append(req.Approvals, models.ApprovalRecord{
		Role:     recipient.Role,
		Email:    recipient.Email,
		Status:   "approved",
		Date:     now,
		Comments: comments,
	})
	req.CurrentStage++
	if req.CurrentStage == len(req.RecipientsFlow) {
		req.Status = models.StatusCompleted
	} else {
		req.Status = models.StatusInProgress
	}
	req.UpdatedAt = now
	return nil
}

// Reject terminates the request at the current stage. The stage pointer
// does not advance and the rejection reason is stamped exactly once.
func Reject(req *models.ApprovalRequest, actorEmail, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return models.ErrValidation("rejection reason is required")
	}
	if err := CanAct(req, actorEmail); err != nil {
		return err
	}

	req.Status = models.StatusRejected
	req.Rejection = &models.RejectionInfo{
		RejectedBy: req.CurrentRecipient().Email,
		Reason:     reason,
		RejectedAt: now,
	}
	req.UpdatedAt = now
	return nil
}
