// handlers/event_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"campusflow/approval"
	"campusflow/models"
	"campusflow/utils"
)

type eventRequestBody struct {
	Title          string             `json:"title" validate:"required"`
	Description    string             `json:"description"`
	Venue          string             `json:"venue" validate:"required"`
	StartDate      time.Time          `json:"startDate" validate:"required"`
	EndDate        time.Time          `json:"endDate" validate:"required"`
	Budget         float64            `json:"budget"`
	RecipientsFlow []models.Recipient `json:"recipientsFlow" validate:"required"`
}

// CreateEvent submits an event permission request.
func CreateEvent(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleStudent, models.RoleCouncil)
	if !ok {
		return
	}

	var body eventRequestBody
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := utils.ValidateStruct(body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if body.EndDate.Before(body.StartDate) {
		utils.RespondWithDomainError(w, models.ErrValidation("endDate must not precede startDate"))
		return
	}

	req, err := approval.NewRequest(models.RequestTypeEvent,
		models.Submitter{Name: who.Name, Email: who.Email},
		body.RecipientsFlow, time.Now().UTC())
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	req.ID = primitive.NewObjectID()
	req.Event = &models.EventPayload{
		Title:       body.Title,
		Description: body.Description,
		Venue:       body.Venue,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Budget:      body.Budget,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := requestCollection.InsertOne(ctx, req); err != nil {
		log.Printf("CreateEvent - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create request")
		return
	}

	writeAudit(r, who, "event_submit", "request", req.ID, bson.M{"title": body.Title})
	log.Printf("Event request %s submitted by %s", req.ID.Hex(), who.Email)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"request": req,
		"success": true,
	})
}

func GetPendingEvents(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	live, err := listRequests(ctx, models.RequestTypeEvent,
		[]string{models.StatusPending, models.StatusInProgress}, nil)
	if err != nil {
		log.Printf("GetPendingEvents - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": awaitingAction(live, who.Email),
		"success":  true,
	})
}

func GetApprovedEvents(w http.ResponseWriter, r *http.Request) {
	listEventsByStatus(w, r, models.StatusCompleted)
}

func GetRejectedEvents(w http.ResponseWriter, r *http.Request) {
	listEventsByStatus(w, r, models.StatusRejected)
}

func listEventsByStatus(w http.ResponseWriter, r *http.Request, status string) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	requests, err := listRequests(ctx, models.RequestTypeEvent, []string{status}, nil)
	if err != nil {
		log.Printf("listEventsByStatus(%s) - find error: %v", status, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"success":  true,
	})
}

func GetMyEvents(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	mine, err := listRequests(ctx, models.RequestTypeEvent, nil, bson.M{"submittedBy.email": who.Email})
	if err != nil {
		log.Printf("GetMyEvents - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": mine,
		"success":  true,
	})
}

func ApproveEvent(w http.ResponseWriter, r *http.Request) {
	approveChainRequest(w, r, models.RequestTypeEvent, "event_approve")
}

func RejectEvent(w http.ResponseWriter, r *http.Request) {
	rejectChainRequest(w, r, models.RequestTypeEvent, "event_reject")
}

// eventOverrides are the optional field replacements a submitter may
// attach to a resubmission.
type eventOverrides struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Venue       string  `json:"venue"`
	Budget      float64 `json:"budget"`
}

// resubmissionPayload clones the original event payload with the given
// overrides applied. A stored event request missing its payload is
// corrupt and cannot be resubmitted.
func resubmissionPayload(original *models.ApprovalRequest, overrides eventOverrides) (*models.EventPayload, error) {
	if original.Event == nil {
		return nil, models.ErrInvalidState("request has no event payload to resubmit")
	}

	payload := *original.Event
	if overrides.Title != "" {
		payload.Title = overrides.Title
	}
	if overrides.Description != "" {
		payload.Description = overrides.Description
	}
	if overrides.Venue != "" {
		payload.Venue = overrides.Venue
	}
	if overrides.Budget > 0 {
		payload.Budget = overrides.Budget
	}
	return &payload, nil
}

// ResubmitEvent clones a rejected event request into a fresh one at
// stage 0. The rejected original stays terminal; the copy links back
// through previousRequestId.
func ResubmitEvent(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	// optional payload overrides for the resubmission
	var body eventOverrides
	_ = decodeJSON(r, &body)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	original, err := loadRequest(ctx, id, models.RequestTypeEvent)
	if err != nil {
		respondRequestError(w, err)
		return
	}
	if original.Status != models.StatusRejected {
		utils.RespondWithDomainError(w, models.ErrInvalidState("only rejected requests can be resubmitted"))
		return
	}
	if !strings.EqualFold(original.SubmittedBy.Email, who.Email) {
		utils.RespondWithDomainError(w, models.ErrNotAuthorized("only the original submitter may resubmit"))
		return
	}

	fresh, err := approval.NewRequest(models.RequestTypeEvent,
		original.SubmittedBy, original.RecipientsFlow, time.Now().UTC())
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	fresh.ID = primitive.NewObjectID()
	fresh.PreviousRequestID = &original.ID

	payload, err := resubmissionPayload(original, body)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	fresh.Event = payload

	if _, err := requestCollection.InsertOne(ctx, fresh); err != nil {
		log.Printf("ResubmitEvent - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to resubmit request")
		return
	}

	writeAudit(r, who, "event_resubmit", "request", fresh.ID, bson.M{
		"previousRequestId": original.ID.Hex(),
	})
	log.Printf("Event request %s resubmitted as %s by %s", original.ID.Hex(), fresh.ID.Hex(), who.Email)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"request": fresh,
		"success": true,
	})
}
