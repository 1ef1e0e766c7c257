// handlers/voting_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusflow/config"
	"campusflow/models"
	"campusflow/utils"
	"campusflow/voting"
	"campusflow/websocket"
)

const electionDocID = "election"

// expireStaleAuthorization persists the lazy Active→Expired flip for a
// student, if one is due. Safe to call unconditionally.
func expireStaleAuthorization(ctx context.Context, studentID primitive.ObjectID, now time.Time) {
	_, err := authCollection.UpdateOne(ctx,
		bson.M{
			"studentId": studentID,
			"status":    models.AuthStatusActive,
			"expiresAt": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"status": models.AuthStatusExpired}},
	)
	if err != nil {
		log.Printf("expireStaleAuthorization: %v", err)
	}
}

// ListVoters returns students with their latest authorization, stale
// Active windows reported as Expired.
func ListVoters(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	filter := bson.M{"role": models.RoleStudent}
	if search := r.URL.Query().Get("search"); search != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": search, "$options": "i"}},
			{"email": bson.M{"$regex": search, "$options": "i"}},
			{"rollNumber": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	cursor, err := userCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(200))
	if err != nil {
		log.Printf("ListVoters - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch voters")
		return
	}
	defer cursor.Close(ctx)

	var students []models.User
	if err := cursor.All(ctx, &students); err != nil {
		log.Printf("ListVoters - decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode voters")
		return
	}

	// latest authorization per student
	authCursor, err := authCollection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "authorizedAt", Value: -1}}))
	if err != nil {
		log.Printf("ListVoters - auth find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch authorizations")
		return
	}
	defer authCursor.Close(ctx)

	var auths []models.VoterAuthorization
	if err := authCursor.All(ctx, &auths); err != nil {
		log.Printf("ListVoters - auth decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode authorizations")
		return
	}

	now := time.Now().UTC()
	latest := map[primitive.ObjectID]*models.VoterAuthorization{}
	for i := range auths {
		if _, seen := latest[auths[i].StudentID]; !seen {
			latest[auths[i].StudentID] = &auths[i]
		}
	}

	type voterRow struct {
		models.User
		Authorization *models.VoterAuthorization `json:"authorization,omitempty"`
		AuthStatus    string                     `json:"authStatus,omitempty"`
	}
	rows := []voterRow{}
	for _, s := range students {
		row := voterRow{User: s}
		if auth, ok := latest[s.ID]; ok {
			row.Authorization = auth
			row.AuthStatus = voting.EffectiveStatus(auth, now)
		}
		rows = append(rows, row)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"voters":  rows,
		"success": true,
	})
}

// AuthorizeVoter grants a student a fresh voting window. The partial
// unique index turns a racing double-grant into a duplicate-key error.
func AuthorizeVoter(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	studentID, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var student models.User
	err = userCollection.FindOne(ctx, bson.M{"_id": studentID, "role": models.RoleStudent}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithDomainError(w, models.ErrNotFound("student not found"))
			return
		}
		log.Printf("AuthorizeVoter - find student error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch student")
		return
	}

	now := time.Now().UTC()
	expireStaleAuthorization(ctx, studentID, now)

	auth := voting.NewAuthorization(studentID, student.Email, now, config.VoterAuthWindow)
	auth.ID = primitive.NewObjectID()

	if _, err := authCollection.InsertOne(ctx, auth); err != nil {
		if mapped := mapAuthorizationInsertError(err); models.KindOf(mapped) != "" {
			utils.RespondWithDomainError(w, mapped)
			return
		}
		log.Printf("AuthorizeVoter - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to authorize voter")
		return
	}

	writeAudit(r, who, "voter_authorize", "authorization", auth.ID, bson.M{
		"studentId": studentID.Hex(),
		"expiresAt": auth.ExpiresAt,
	})
	log.Printf("Voter %s authorized until %s", student.Email, auth.ExpiresAt.Format(time.RFC3339))

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"authorization": auth,
		"success":       true,
	})
}

// RevokeAuthorization cancels a still-Active authorization.
func RevokeAuthorization(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	authID, err := pathObjectID(r, mux.Vars(r), "id")
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	result, err := authCollection.UpdateOne(ctx,
		bson.M{"_id": authID, "status": models.AuthStatusActive},
		bson.M{"$set": bson.M{"status": models.AuthStatusRevoked, "revokedAt": now}},
	)
	if err != nil {
		log.Printf("RevokeAuthorization - update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to revoke authorization")
		return
	}
	if result.MatchedCount == 0 {
		var auth models.VoterAuthorization
		err := authCollection.FindOne(ctx, bson.M{"_id": authID}).Decode(&auth)
		if err != nil {
			utils.RespondWithDomainError(w, models.ErrNotFound("authorization not found"))
			return
		}
		utils.RespondWithDomainError(w, models.ErrInvalidState(
			"authorization is "+voting.EffectiveStatus(&auth, now)+" and cannot be revoked"))
		return
	}

	writeAudit(r, who, "voter_revoke", "authorization", authID, nil)
	log.Printf("Authorization %s revoked by %s", authID.Hex(), who.Email)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Authorization revoked",
		"success": true,
	})
}

// CastVote records a single-position vote for the authenticated
// student. The unique (voterId, position) index guarantees exactly one
// of two racing casts succeeds; the loser sees already_voted.
func CastVote(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleStudent)
	if !ok {
		return
	}

	var body struct {
		Position    string `json:"position" validate:"required"`
		CandidateID string `json:"candidateId" validate:"required"`
	}
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := utils.ValidateStruct(body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	candidateID, err := primitive.ObjectIDFromHex(body.CandidateID)
	if err != nil {
		utils.RespondWithDomainError(w, models.ErrValidation("invalid candidateId format"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !isVotingOpen(ctx) {
		utils.RespondWithDomainError(w, models.ErrInvalidState("voting is closed"))
		return
	}

	now := time.Now().UTC()

	var auth models.VoterAuthorization
	err = authCollection.FindOne(ctx, bson.M{
		"studentId": who.ID,
		"status":    models.AuthStatusActive,
	}).Decode(&auth)

	var authPtr *models.VoterAuthorization
	if err == nil {
		authPtr = &auth
	} else if err != mongo.ErrNoDocuments {
		log.Printf("CastVote - auth lookup error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check authorization")
		return
	}

	if err := voting.CheckCastable(authPtr, now); err != nil {
		// persist the lazy expiry flip before reporting it
		if models.KindOf(err) == models.KindExpired {
			expireStaleAuthorization(ctx, who.ID, now)
		}
		utils.RespondWithDomainError(w, err)
		return
	}

	var candidate models.Candidature
	err = candidatureCollection.FindOne(ctx, bson.M{"_id": candidateID}).Decode(&candidate)
	if err != nil {
		utils.RespondWithDomainError(w, models.ErrNotFound("candidate not found"))
		return
	}
	if candidate.Status != models.CandidatureApproved {
		utils.RespondWithDomainError(w, models.ErrValidation("candidate is not on the ballot"))
		return
	}
	if candidate.Position != body.Position {
		utils.RespondWithDomainError(w, models.ErrValidation("candidate is not running for this position"))
		return
	}

	vote := models.Vote{
		ID:          primitive.NewObjectID(),
		VoterID:     who.ID,
		Position:    body.Position,
		CandidateID: candidateID,
		CastAt:      now,
	}
	if _, err := voteCollection.InsertOne(ctx, vote); err != nil {
		if mapped := mapVoteInsertError(err); models.KindOf(mapped) != "" {
			utils.RespondWithDomainError(w, mapped)
			return
		}
		log.Printf("CastVote - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	ballotComplete := markVotedIfBallotComplete(ctx, who.ID, auth.ID, now)

	writeAudit(r, who, "vote_cast", "vote", vote.ID, bson.M{"position": body.Position})
	broadcastTally(ctx)
	log.Printf("Vote cast by %s for position %s", who.Email, body.Position)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"receipt": models.VoteReceipt{
			ReceiptID:      uuid.New().String(),
			Position:       body.Position,
			CandidateID:    candidateID.Hex(),
			CastAt:         now,
			BallotComplete: ballotComplete,
		},
		"success": true,
	})
}

// markVotedIfBallotComplete flips the authorization to Voted once the
// student has covered every position that has approved candidatures.
func markVotedIfBallotComplete(ctx context.Context, studentID, authID primitive.ObjectID, now time.Time) bool {
	candidatures, err := fetchCandidatures(ctx, models.CandidatureApproved)
	if err != nil {
		log.Printf("markVotedIfBallotComplete - candidatures: %v", err)
		return false
	}

	cursor, err := voteCollection.Find(ctx, bson.M{"voterId": studentID})
	if err != nil {
		log.Printf("markVotedIfBallotComplete - votes: %v", err)
		return false
	}
	defer cursor.Close(ctx)

	var votes []models.Vote
	if err := cursor.All(ctx, &votes); err != nil {
		log.Printf("markVotedIfBallotComplete - decode votes: %v", err)
		return false
	}

	if !voting.BallotComplete(votes, voting.BallotPositions(candidatures)) {
		return false
	}

	_, err = authCollection.UpdateOne(ctx,
		bson.M{"_id": authID, "status": models.AuthStatusActive},
		bson.M{"$set": bson.M{"status": models.AuthStatusVoted, "votedAt": now}},
	)
	if err != nil {
		log.Printf("markVotedIfBallotComplete - update auth: %v", err)
	}
	return true
}

// GetVotingStatus reports whether voting is open plus the caller's own
// authorization state.
func GetVotingStatus(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response := map[string]interface{}{
		"votingOpen": isVotingOpen(ctx),
		"success":    true,
	}

	var auth models.VoterAuthorization
	err := authCollection.FindOne(ctx,
		bson.M{"studentId": who.ID},
		options.FindOne().SetSort(bson.D{{Key: "authorizedAt", Value: -1}}),
	).Decode(&auth)
	if err == nil {
		response["authorization"] = auth
		response["authStatus"] = voting.EffectiveStatus(&auth, time.Now().UTC())
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ToggleVotingStatus opens or closes the election.
func ToggleVotingStatus(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	open := isVotingOpen(ctx)
	newState := !open

	_, err := electionCollection.UpdateOne(ctx,
		bson.M{"_id": electionDocID},
		bson.M{"$set": bson.M{"votingOpen": newState, "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("ToggleVotingStatus - update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to toggle voting status")
		return
	}

	writeAudit(r, who, "election_toggle", "election", primitive.NilObjectID, bson.M{"votingOpen": newState})
	websocket.SendElectionStatus(newState)
	log.Printf("Voting toggled to open=%v by %s", newState, who.Email)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"votingOpen": newState,
		"success":    true,
	})
}

// GetResults tabulates the election, optionally for one position.
func GetResults(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	tally, err := computeTally(ctx, r.URL.Query().Get("position"))
	if err != nil {
		log.Printf("GetResults - tally error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tally":   tally,
		"success": true,
	})
}

// ResetElection wipes votes and authorizations and returns all
// candidatures to Pending. Requires an explicit confirmation literal in
// the body; this is enforced here, not in any client.
func ResetElection(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	var body struct {
		Confirm string `json:"confirm"`
	}
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if body.Confirm != "RESET" {
		utils.RespondWithDomainError(w, models.ErrValidation(`reset requires {"confirm":"RESET"}`))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	votesDeleted, err := voteCollection.DeleteMany(ctx, bson.M{})
	if err != nil {
		log.Printf("ResetElection - delete votes: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reset votes")
		return
	}
	authsDeleted, err := authCollection.DeleteMany(ctx, bson.M{})
	if err != nil {
		log.Printf("ResetElection - delete authorizations: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reset authorizations")
		return
	}
	_, err = candidatureCollection.UpdateMany(ctx, bson.M{}, bson.M{
		"$set":   bson.M{"status": models.CandidaturePending, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"remark": ""},
	})
	if err != nil {
		log.Printf("ResetElection - reset candidatures: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reset candidatures")
		return
	}

	writeAudit(r, who, "election_reset", "election", primitive.NilObjectID, bson.M{
		"votesDeleted": votesDeleted.DeletedCount,
		"authsDeleted": authsDeleted.DeletedCount,
	})
	log.Printf("Election reset by %s: %d votes, %d authorizations removed",
		who.Email, votesDeleted.DeletedCount, authsDeleted.DeletedCount)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Election reset",
		"success": true,
	})
}

// ==== helpers ====

// mapAuthorizationInsertError translates the partial unique index on
// (studentId, status=Active) firing into the domain conflict error. Any
// other error passes through for generic handling.
func mapAuthorizationInsertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict("student already has an active authorization")
	}
	return err
}

// mapVoteInsertError translates the unique (voterId, position) index
// firing into already_voted. The index, not this handler, is what makes
// a racing double cast lose.
func mapVoteInsertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrAlreadyVoted("a vote for this position was already cast")
	}
	return err
}

func isVotingOpen(ctx context.Context) bool {
	var state models.ElectionState
	err := electionCollection.FindOne(ctx, bson.M{"_id": electionDocID}).Decode(&state)
	if err != nil {
		return false
	}
	return state.VotingOpen
}

func fetchCandidatures(ctx context.Context, status string) ([]models.Candidature, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := candidatureCollection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	candidatures := []models.Candidature{}
	if err := cursor.All(ctx, &candidatures); err != nil {
		return nil, err
	}
	return candidatures, nil
}

func computeTally(ctx context.Context, position string) (models.Tally, error) {
	candidatures, err := fetchCandidatures(ctx, models.CandidatureApproved)
	if err != nil {
		return models.Tally{}, err
	}

	cursor, err := voteCollection.Find(ctx, bson.M{})
	if err != nil {
		return models.Tally{}, err
	}
	defer cursor.Close(ctx)

	var votes []models.Vote
	if err := cursor.All(ctx, &votes); err != nil {
		return models.Tally{}, err
	}

	return voting.ComputeTally(candidatures, votes, position), nil
}

func broadcastTally(ctx context.Context) {
	tally, err := computeTally(ctx, "")
	if err != nil {
		log.Printf("broadcastTally: %v", err)
		return
	}
	websocket.SendTallyUpdate(tally)
}
