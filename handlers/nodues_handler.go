// handlers/nodues_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"campusflow/approval"
	"campusflow/models"
	"campusflow/utils"
	"campusflow/websocket"
)

// SubmitNoDues creates a no-dues clearance request with its ordered
// department approval chain.
func SubmitNoDues(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleStudent)
	if !ok {
		return
	}

	var body struct {
		RollNumber     string             `json:"rollNumber" validate:"required"`
		Department     string             `json:"department" validate:"required"`
		Batch          string             `json:"batch"`
		Remarks        string             `json:"remarks"`
		RecipientsFlow []models.Recipient `json:"recipientsFlow" validate:"required"`
	}
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := utils.ValidateStruct(body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	req, err := approval.NewRequest(models.RequestTypeNoDues,
		models.Submitter{Name: who.Name, Email: who.Email},
		body.RecipientsFlow, time.Now().UTC())
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	req.ID = primitive.NewObjectID()
	req.NoDues = &models.NoDuesPayload{
		RollNumber: body.RollNumber,
		Department: body.Department,
		Batch:      body.Batch,
		Remarks:    body.Remarks,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := requestCollection.InsertOne(ctx, req); err != nil {
		log.Printf("SubmitNoDues - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create request")
		return
	}

	writeAudit(r, who, "nodues_submit", "request", req.ID, bson.M{
		"rollNumber": body.RollNumber,
		"stages":     len(req.RecipientsFlow),
	})
	log.Printf("No-dues request %s submitted by %s", req.ID.Hex(), who.Email)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"request": req,
		"success": true,
	})
}

// GetPendingNoDues lists live requests awaiting the caller's action.
func GetPendingNoDues(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	live, err := listRequests(ctx, models.RequestTypeNoDues,
		[]string{models.StatusPending, models.StatusInProgress}, nil)
	if err != nil {
		log.Printf("GetPendingNoDues - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": awaitingAction(live, who.Email),
		"success":  true,
	})
}

// GetApprovedNoDues lists fully completed no-dues requests.
func GetApprovedNoDues(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	completed, err := listRequests(ctx, models.RequestTypeNoDues, []string{models.StatusCompleted}, nil)
	if err != nil {
		log.Printf("GetApprovedNoDues - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": completed,
		"success":  true,
	})
}

// GetMyNoDues lists the caller's own requests, whatever their state.
func GetMyNoDues(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	mine, err := listRequests(ctx, models.RequestTypeNoDues, nil, bson.M{"submittedBy.email": who.Email})
	if err != nil {
		log.Printf("GetMyNoDues - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": mine,
		"success":  true,
	})
}

// ApproveNoDues advances the chain by one stage if the caller is the
// recipient currently awaited.
func ApproveNoDues(w http.ResponseWriter, r *http.Request) {
	approveChainRequest(w, r, models.RequestTypeNoDues, "nodues_approve")
}

// RejectNoDues terminates the chain with a reason.
func RejectNoDues(w http.ResponseWriter, r *http.Request) {
	rejectChainRequest(w, r, models.RequestTypeNoDues, "nodues_reject")
}

// approveChainRequest is the shared approve flow for no-dues and event
// requests: load, mutate through the engine, CAS-persist.
func approveChainRequest(w http.ResponseWriter, r *http.Request, requestType, auditAction string) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	var body struct {
		Comments string `json:"comments"`
	}
	// body is optional on approve
	_ = decodeJSON(r, &body)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, err := loadRequest(ctx, id, requestType)
	if err != nil {
		respondRequestError(w, err)
		return
	}

	prevStage, prevStatus := req.CurrentStage, req.Status
	if err := approval.Approve(req, who.Email, body.Comments, time.Now().UTC()); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := casReplace(ctx, req, prevStage, prevStatus); err != nil {
		respondRequestError(w, err)
		return
	}

	writeAudit(r, who, auditAction, "request", req.ID, bson.M{
		"stage":     prevStage,
		"newStatus": req.Status,
	})
	websocket.SendRequestStatusChange(requestType, req.ID.Hex(), prevStatus, req.Status, req.CurrentStage)
	log.Printf("%s request %s stage %d approved by %s → %s",
		requestType, req.ID.Hex(), prevStage, who.Email, req.Status)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"request": req,
		"success": true,
	})
}

// rejectChainRequest is the shared reject flow.
func rejectChainRequest(w http.ResponseWriter, r *http.Request, requestType, auditAction string) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	var body struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := utils.ValidateStruct(body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, err := loadRequest(ctx, id, requestType)
	if err != nil {
		respondRequestError(w, err)
		return
	}

	prevStage, prevStatus := req.CurrentStage, req.Status
	if err := approval.Reject(req, who.Email, body.Reason, time.Now().UTC()); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := casReplace(ctx, req, prevStage, prevStatus); err != nil {
		respondRequestError(w, err)
		return
	}

	writeAudit(r, who, auditAction, "request", req.ID, bson.M{
		"stage":  prevStage,
		"reason": body.Reason,
	})
	websocket.SendRequestStatusChange(requestType, req.ID.Hex(), prevStatus, req.Status, req.CurrentStage)
	log.Printf("%s request %s rejected at stage %d by %s",
		requestType, req.ID.Hex(), prevStage, who.Email)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"request": req,
		"success": true,
	})
}
