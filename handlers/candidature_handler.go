// handlers/candidature_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/models"
	"campusflow/utils"
)

// SubmitCandidature files a new candidature for review. One live
// candidature per student and position.
func SubmitCandidature(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleStudent)
	if !ok {
		return
	}

	var body struct {
		Position   string `json:"position" validate:"required"`
		Statement  string `json:"statement" validate:"required"`
		Experience string `json:"experience"`
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

	count, err := candidatureCollection.CountDocuments(ctx, bson.M{
		"userId":   who.ID,
		"position": body.Position,
		"status":   bson.M{"$in": []string{models.CandidaturePending, models.CandidatureApproved}},
	})
	if err != nil {
		log.Printf("SubmitCandidature - count error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check existing candidatures")
		return
	}
	if count > 0 {
		utils.RespondWithDomainError(w, models.ErrConflict("a live candidature for this position already exists"))
		return
	}

	now := time.Now().UTC()
	candidature := models.Candidature{
		ID:         primitive.NewObjectID(),
		UserID:     who.ID,
		Name:       who.Name,
		Email:      who.Email,
		Position:   body.Position,
		Statement:  body.Statement,
		Experience: body.Experience,
		Status:     models.CandidaturePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := candidatureCollection.InsertOne(ctx, candidature); err != nil {
		log.Printf("SubmitCandidature - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to submit candidature")
		return
	}

	writeAudit(r, who, "candidature_submit", "candidature", candidature.ID, bson.M{"position": body.Position})
	log.Printf("Candidature %s submitted by %s for %s", candidature.ID.Hex(), who.Email, body.Position)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"candidature": candidature,
		"success":     true,
	})
}

// ListCandidatures returns candidatures filtered by ?status= and
// ?position=.
func ListCandidatures(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" && status != "all" {
		filter["status"] = status
	}
	if position := r.URL.Query().Get("position"); position != "" {
		filter["position"] = position
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := candidatureCollection.Find(ctx, filter)
	if err != nil {
		log.Printf("ListCandidatures - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch candidatures")
		return
	}
	defer cursor.Close(ctx)

	candidatures := []models.Candidature{}
	if err := cursor.All(ctx, &candidatures); err != nil {
		log.Printf("ListCandidatures - decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode candidatures")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"candidatures": candidatures,
		"success":      true,
	})
}

// GetMyCandidatures returns the caller's own candidatures.
func GetMyCandidatures(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := candidatureCollection.Find(ctx, bson.M{"userId": who.ID})
	if err != nil {
		log.Printf("GetMyCandidatures - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch candidatures")
		return
	}
	defer cursor.Close(ctx)

	candidatures := []models.Candidature{}
	if err := cursor.All(ctx, &candidatures); err != nil {
		log.Printf("GetMyCandidatures - decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode candidatures")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"candidatures": candidatures,
		"success":      true,
	})
}

func ApproveCandidature(w http.ResponseWriter, r *http.Request) {
	reviewCandidature(w, r, models.CandidatureApproved, "candidature_approve", false)
}

func RejectCandidature(w http.ResponseWriter, r *http.Request) {
	reviewCandidature(w, r, models.CandidatureRejected, "candidature_reject", false)
}

// RevertCandidature sends a candidature back to its owner with a remark
// so it can be corrected and resubmitted.
func RevertCandidature(w http.ResponseWriter, r *http.Request) {
	reviewCandidature(w, r, models.CandidatureReverted, "candidature_revert", true)
}

// reviewCandidature moves a Pending candidature into a reviewed state.
// The status guard in the filter makes racing reviews lose cleanly.
func reviewCandidature(w http.ResponseWriter, r *http.Request, newStatus, auditAction string, remarkRequired bool) {
	who, ok := requireRole(w, r, models.RoleAdmin, models.RoleCouncil)
	if !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	var body struct {
		Remark string `json:"remark"`
	}
	_ = decodeJSON(r, &body)
	if remarkRequired && body.Remark == "" {
		utils.RespondWithDomainError(w, models.ErrValidation("a remark is required when reverting"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	update := bson.M{"status": newStatus, "updatedAt": time.Now().UTC()}
	if body.Remark != "" {
		update["remark"] = body.Remark
	}

	result, err := candidatureCollection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CandidaturePending},
		bson.M{"$set": update},
	)
	if err != nil {
		log.Printf("reviewCandidature(%s) - update error: %v", newStatus, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update candidature")
		return
	}
	if result.MatchedCount == 0 {
		var current models.Candidature
		err := candidatureCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
		if err != nil {
			utils.RespondWithDomainError(w, models.ErrNotFound("candidature not found"))
			return
		}
		utils.RespondWithDomainError(w, models.ErrInvalidState(
			"candidature is "+current.Status+" and can no longer be reviewed"))
		return
	}

	writeAudit(r, who, auditAction, "candidature", id, bson.M{"remark": body.Remark})
	log.Printf("Candidature %s marked %s by %s", id.Hex(), newStatus, who.Email)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  newStatus,
		"success": true,
	})
}

// UpdateCandidature lets the owner amend a Reverted candidature, which
// puts it back in the review queue.
func UpdateCandidature(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleStudent)
	if !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	var body struct {
		Statement  string `json:"statement" validate:"required"`
		Experience string `json:"experience"`
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

	result, err := candidatureCollection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": who.ID, "status": models.CandidatureReverted},
		bson.M{
			"$set": bson.M{
				"statement":  body.Statement,
				"experience": body.Experience,
				"status":     models.CandidaturePending,
				"updatedAt":  time.Now().UTC(),
			},
			"$unset": bson.M{"remark": ""},
		},
	)
	if err != nil {
		log.Printf("UpdateCandidature - update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update candidature")
		return
	}
	if result.MatchedCount == 0 {
		var current models.Candidature
		findErr := candidatureCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
		if findErr == mongo.ErrNoDocuments {
			utils.RespondWithDomainError(w, models.ErrNotFound("candidature not found"))
			return
		}
		if findErr == nil && current.UserID != who.ID {
			utils.RespondWithDomainError(w, models.ErrNotAuthorized("only the owner may update a candidature"))
			return
		}
		utils.RespondWithDomainError(w, models.ErrInvalidState("only reverted candidatures can be updated"))
		return
	}

	writeAudit(r, who, "candidature_update", "candidature", id, nil)
	log.Printf("Candidature %s updated and resubmitted by %s", id.Hex(), who.Email)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Candidature resubmitted for review",
		"success": true,
	})
}
