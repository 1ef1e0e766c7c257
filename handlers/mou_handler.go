// handlers/mou_handler.go
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
	"campusflow/signature"
	"campusflow/utils"
	"campusflow/websocket"
)

// CreateMou submits an MOU signing request. The document must already
// be uploaded; its hash roots the signature chain.
func CreateMou(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleCouncil, models.RoleFaculty, models.RoleAdmin)
	if !ok {
		return
	}

	var body struct {
		Organization   string             `json:"organization" validate:"required"`
		Purpose        string             `json:"purpose" validate:"required"`
		Duration       string             `json:"duration"`
		Document       models.Document    `json:"document" validate:"required"`
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
	if body.Document.Hash == "" {
		utils.RespondWithDomainError(w, models.ErrValidation("document hash is required"))
		return
	}

	req, err := approval.NewRequest(models.RequestTypeMou,
		models.Submitter{Name: who.Name, Email: who.Email},
		body.RecipientsFlow, time.Now().UTC())
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	req.ID = primitive.NewObjectID()
	req.Mou = &models.MouPayload{
		Organization: body.Organization,
		Purpose:      body.Purpose,
		Duration:     body.Duration,
	}
	req.Document = &body.Document
	req.Signatures = []models.SignatureRecord{}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := requestCollection.InsertOne(ctx, req); err != nil {
		log.Printf("CreateMou - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create request")
		return
	}

	writeAudit(r, who, "mou_submit", "request", req.ID, bson.M{
		"organization": body.Organization,
		"documentHash": body.Document.Hash,
	})
	log.Printf("MOU request %s submitted by %s", req.ID.Hex(), who.Email)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"request": req,
		"success": true,
	})
}

// GetPendingMous lists MOUs awaiting the caller's signature.
func GetPendingMous(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	live, err := listRequests(ctx, models.RequestTypeMou,
		[]string{models.StatusPending, models.StatusInProgress}, nil)
	if err != nil {
		log.Printf("GetPendingMous - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": awaitingAction(live, who.Email),
		"success":  true,
	})
}

// GetMous lists MOUs filtered by ?status=.
func GetMous(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	var statuses []string
	if status := r.URL.Query().Get("status"); status != "" && status != "all" {
		statuses = []string{status}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	requests, err := listRequests(ctx, models.RequestTypeMou, statuses, nil)
	if err != nil {
		log.Printf("GetMous - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"success":  true,
	})
}

// GetMouSigningPayload returns the canonical payload the caller must
// sign for the current stage, so clients never construct it themselves.
func GetMouSigningPayload(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, err := loadRequest(ctx, id, models.RequestTypeMou)
	if err != nil {
		respondRequestError(w, err)
		return
	}
	if err := approval.CanAct(req, who.Email); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if req.Document == nil {
		utils.RespondWithDomainError(w, models.ErrValidation("request has no document"))
		return
	}

	var prev *models.SignatureRecord
	if n := len(req.Signatures); n > 0 {
		prev = &req.Signatures[n-1]
	}
	payload, err := signature.PayloadForStage(req.Document.Hash, prev)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"payload": payload,
		"stage":   req.CurrentStage,
		"success": true,
	})
}

// SignMou records a signature for the current stage and advances the
// chain. The expected payload is recomputed server-side and compared
// byte-for-byte with what the client signed; a client-declared payload
// is never trusted. The existing chain must verify before a new link
// is accepted, so nothing ever advances past a broken link.
func SignMou(w http.ResponseWriter, r *http.Request) {
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
		Signature     string `json:"signature" validate:"required"`
		WalletAddress string `json:"walletAddress" validate:"required"`
		SignedData    string `json:"signedData" validate:"required"`
		DocumentHash  string `json:"documentHash"`
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

	req, err := loadRequest(ctx, id, models.RequestTypeMou)
	if err != nil {
		respondRequestError(w, err)
		return
	}
	if err := approval.CanAct(req, who.Email); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if req.Document == nil || req.Document.Hash == "" {
		utils.RespondWithDomainError(w, models.ErrValidation("request has no document to sign"))
		return
	}
	if body.DocumentHash != "" && body.DocumentHash != req.Document.Hash {
		utils.RespondWithDomainError(w, models.ErrSignatureMismatch("declared document hash does not match the request document"))
		return
	}

	// an unverifiable existing chain blocks all further signing
	if err := signature.VerifyChain(req); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	var prev *models.SignatureRecord
	if n := len(req.Signatures); n > 0 {
		prev = &req.Signatures[n-1]
	}
	expected, err := signature.PayloadForStage(req.Document.Hash, prev)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if body.SignedData != expected {
		utils.RespondWithDomainError(w, models.ErrSignatureMismatch(
			"signed payload does not match the expected chain payload for this stage"))
		return
	}
	if err := signature.VerifySignature(body.WalletAddress, body.Signature, expected); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	now := time.Now().UTC()
	prevStage, prevStatus := req.CurrentStage, req.Status
	if err := approval.Approve(req, who.Email, "", now); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	req.Signatures = append(req.Signatures, models.SignatureRecord{
		SignerName:    who.Name,
		SignerEmail:   who.Email,
		WalletAddress: body.WalletAddress,
		Signature:     body.Signature,
		SignedData:    expected,
		SignedAt:      now,
	})

	if err := casReplace(ctx, req, prevStage, prevStatus); err != nil {
		respondRequestError(w, err)
		return
	}

	writeAudit(r, who, "mou_sign", "request", req.ID, bson.M{
		"stage":     prevStage,
		"wallet":    body.WalletAddress,
		"newStatus": req.Status,
	})
	websocket.SendRequestStatusChange(models.RequestTypeMou, req.ID.Hex(), prevStatus, req.Status, req.CurrentStage)
	log.Printf("MOU %s stage %d signed by %s → %s", req.ID.Hex(), prevStage, who.Email, req.Status)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"request": req,
		"success": true,
	})
}

// RejectMou terminates the signing chain with a reason.
func RejectMou(w http.ResponseWriter, r *http.Request) {
	rejectChainRequest(w, r, models.RequestTypeMou, "mou_reject")
}

// VerifyMouChain re-validates the full signature chain of an MOU. Used
// by auditors; read-only.
func VerifyMouChain(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, err := loadRequest(ctx, id, models.RequestTypeMou)
	if err != nil {
		respondRequestError(w, err)
		return
	}

	if err := signature.VerifyChain(req); err != nil {
		utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"valid":      false,
			"error":      err.Error(),
			"signatures": len(req.Signatures),
		})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      true,
		"signatures": len(req.Signatures),
	})
}
