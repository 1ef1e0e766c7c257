// models/voting.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Voter authorization statuses. Active is the only non-terminal state.
const (
	AuthStatusActive  = "Active"
	AuthStatusVoted   = "Voted"
	AuthStatusExpired = "Expired"
	AuthStatusRevoked = "Revoked"
)

// VoterAuthorization is a time-boxed grant of voting eligibility. At
// most one Active authorization exists per student (enforced by a
// partial unique index). Expiry is checked lazily against wall-clock
// time; a stale Active record past ExpiresAt is treated as Expired.
type VoterAuthorization struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID    primitive.ObjectID `bson:"studentId" json:"studentId"`
	StudentEmail string             `bson:"studentEmail" json:"studentEmail"`
	AuthorizedAt time.Time          `bson:"authorizedAt" json:"authorizedAt"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
	Status       string             `bson:"status" json:"status"`
	VotedAt      *time.Time         `bson:"votedAt,omitempty" json:"votedAt,omitempty"`
	RevokedAt    *time.Time         `bson:"revokedAt,omitempty" json:"revokedAt,omitempty"`
}

// Candidature statuses. Only Approved candidatures appear on the ballot.
const (
	CandidaturePending  = "Pending"
	CandidatureApproved = "Approved"
	CandidatureRejected = "Rejected"
	CandidatureReverted = "Reverted"
)

type Candidature struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Position   string             `bson:"position" json:"position"`
	Statement  string             `bson:"statement" json:"statement"`
	Experience string             `bson:"experience,omitempty" json:"experience,omitempty"`
	Status     string             `bson:"status" json:"status"`
	Remark     string             `bson:"remark,omitempty" json:"remark,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Vote binds a voter to a candidate for one position. The (voterId,
// position) pair is unique at the storage layer.
type Vote struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VoterID     primitive.ObjectID `bson:"voterId" json:"voterId"`
	Position    string             `bson:"position" json:"position"`
	CandidateID primitive.ObjectID `bson:"candidateId" json:"candidateId"`
	CastAt      time.Time          `bson:"castAt" json:"castAt"`
}

// VoteReceipt is returned to the voter after a successful cast.
type VoteReceipt struct {
	ReceiptID      string    `json:"receiptId"`
	Position       string    `json:"position"`
	CandidateID    string    `json:"candidateId"`
	CastAt         time.Time `json:"castAt"`
	BallotComplete bool      `json:"ballotComplete"`
}

// CandidateResult is one row of a position tally, sorted by vote count
// descending with ties broken by candidate id ascending.
type CandidateResult struct {
	CandidateID primitive.ObjectID `json:"candidateId"`
	Name        string             `json:"name"`
	VoteCount   int                `json:"voteCount"`
	Percentage  float64            `json:"percentage"`
}

type PositionTally struct {
	Position   string            `json:"position"`
	TotalVotes int               `json:"totalVotes"`
	Results    []CandidateResult `json:"results"`
}

// Tally is the derived read-model over all recorded votes.
type Tally struct {
	Positions  []PositionTally `json:"positions"`
	TotalVotes int             `json:"totalVotes"`
}

// ElectionState is a singleton document gating vote casting.
type ElectionState struct {
	ID         string    `bson:"_id" json:"-"`
	VotingOpen bool      `bson:"votingOpen" json:"votingOpen"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}
