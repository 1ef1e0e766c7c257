// handlers/helpers.go
//
// Shared plumbing for the request handlers: context identity, JSON
// decoding, audit writes and the compare-and-swap persistence used by
// every approval-chain mutation.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/models"
	"campusflow/utils"
	"campusflow/websocket"
)

type identity struct {
	ID    primitive.ObjectID
	IDHex string
	Name  string
	Email string
	Role  string
}

func identityFromContext(r *http.Request) (identity, bool) {
	idHex, ok := r.Context().Value("userID").(string)
	if !ok || idHex == "" {
		return identity{}, false
	}
	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return identity{}, false
	}
	name, _ := r.Context().Value("userName").(string)
	email, _ := r.Context().Value("userEmail").(string)
	role, _ := r.Context().Value("userRole").(string)
	return identity{ID: oid, IDHex: idHex, Name: name, Email: email, Role: role}, true
}

// requireIdentity responds 401 when no authenticated user is attached.
func requireIdentity(w http.ResponseWriter, r *http.Request) (identity, bool) {
	who, ok := identityFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
	}
	return who, ok
}

// requireRole responds 403 unless the caller holds one of the roles.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (identity, bool) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return identity{}, false
	}
	for _, role := range roles {
		if who.Role == role {
			return who, true
		}
	}
	utils.RespondWithDomainError(w, models.ErrNotAuthorized("insufficient role for this operation"))
	return identity{}, false
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.ErrValidation("invalid JSON payload: " + err.Error())
	}
	return nil
}

func pathObjectID(r *http.Request, vars map[string]string, name string) (primitive.ObjectID, error) {
	idStr := vars[name]
	if idStr == "" {
		return primitive.NilObjectID, models.ErrValidation(name + " is required")
	}
	oid, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, models.ErrValidation("invalid " + name + " format")
	}
	return oid, nil
}

// writeAudit appends to the audit trail and mirrors the entry to
// connected dashboards. Audit failures are logged, never surfaced.
func writeAudit(r *http.Request, who identity, action, entityType string, entityID primitive.ObjectID, details bson.M) {
	if auditLogCollection == nil {
		return
	}
	entry := models.AuditLog{
		ID:         primitive.NewObjectID(),
		UserID:     who.ID,
		UserEmail:  who.Email,
		UserRole:   who.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := auditLogCollection.InsertOne(ctx, entry); err != nil {
		log.Printf("Failed to write audit log: %v", err)
		return
	}
	websocket.SendAudit(&entry)
}

func loadRequest(ctx context.Context, id primitive.ObjectID, requestType string) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := requestCollection.FindOne(ctx, bson.M{"_id": id, "type": requestType}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound("request not found")
		}
		return nil, err
	}
	return &req, nil
}

// casReplace persists a mutated request, guarded by the stage and
// status observed before mutation. Two racing approvals on the same
// request cannot both match; the loser re-reads the record and is told
// whether the request moved on (conflict) or already terminated
// (invalid state). currentStage never silently double-advances.
func casReplace(ctx context.Context, req *models.ApprovalRequest, prevStage int, prevStatus string) error {
	result, err := requestCollection.ReplaceOne(ctx, bson.M{
		"_id":          req.ID,
		"currentStage": prevStage,
		"status":       prevStatus,
	}, req)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	var current models.ApprovalRequest
	err = requestCollection.FindOne(ctx, bson.M{"_id": req.ID}).Decode(&current)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.ErrNotFound("request not found")
		}
		return err
	}
	if current.Status == models.StatusCompleted || current.Status == models.StatusRejected {
		return models.ErrInvalidState("request is " + current.Status + " and can no longer be acted on")
	}
	return models.ErrConflict("request was modified concurrently, refetch and retry")
}

func respondRequestError(w http.ResponseWriter, err error) {
	if models.KindOf(err) != "" {
		utils.RespondWithDomainError(w, err)
		return
	}
	log.Printf("request handler error: %v", err)
	utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// listRequests fetches requests of one type filtered by status set,
// newest first.
func listRequests(ctx context.Context, requestType string, statuses []string, extra bson.M) ([]models.ApprovalRequest, error) {
	filter := bson.M{"type": requestType}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	for k, v := range extra {
		filter[k] = v
	}

	cursor, err := requestCollection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.ApprovalRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// awaitingAction narrows live requests to those whose current stage
// recipient is the given email.
func awaitingAction(requests []models.ApprovalRequest, email string) []models.ApprovalRequest {
	pending := []models.ApprovalRequest{}
	for _, req := range requests {
		recipient := req.CurrentRecipient()
		if recipient != nil && strings.EqualFold(recipient.Email, email) {
			pending = append(pending, req)
		}
	}
	return pending
}
