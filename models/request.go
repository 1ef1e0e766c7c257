// models/request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request lifecycle statuses. A request is terminal once completed or
// rejected; nothing may mutate its chain after that.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

// Request types sharing the approval chain.
const (
	RequestTypeNoDues = "nodues"
	RequestTypeEvent  = "event"
	RequestTypeMou    = "mou"
)

type Submitter struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// Recipient is one stage of the approval chain. Order values are
// contiguous from 0 and fixed at creation.
type Recipient struct {
	Order int    `bson:"order" json:"order"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Role  string `bson:"role" json:"role"`
}

// ApprovalRecord is one entry of the append-only approval log, written
// when the recipient at the current stage approves.
type ApprovalRecord struct {
	Role     string    `bson:"role" json:"role"`
	Email    string    `bson:"email" json:"email"`
	Status   string    `bson:"status" json:"status"`
	Date     time.Time `bson:"date" json:"date"`
	Comments string    `bson:"comments,omitempty" json:"comments,omitempty"`
}

type RejectionInfo struct {
	RejectedBy string    `bson:"rejectedBy" json:"rejectedBy"`
	Reason     string    `bson:"reason" json:"reason"`
	RejectedAt time.Time `bson:"rejectedAt" json:"rejectedAt"`
}

// Document is a content-addressed handle into the blob store. Hash is
// the stable identity of the content being signed.
type Document struct {
	Hash     string `bson:"hash" json:"hash"`
	Filename string `bson:"filename" json:"filename"`
	Size     int64  `bson:"size" json:"size"`
	URL      string `bson:"url" json:"url"`
}

type NoDuesPayload struct {
	RollNumber string `bson:"rollNumber" json:"rollNumber"`
	Department string `bson:"department" json:"department"`
	Batch      string `bson:"batch,omitempty" json:"batch,omitempty"`
	Remarks    string `bson:"remarks,omitempty" json:"remarks,omitempty"`
}

type EventPayload struct {
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Venue       string    `bson:"venue" json:"venue"`
	StartDate   time.Time `bson:"startDate" json:"startDate"`
	EndDate     time.Time `bson:"endDate" json:"endDate"`
	Budget      float64   `bson:"budget,omitempty" json:"budget,omitempty"`
}

type MouPayload struct {
	Organization string `bson:"organization" json:"organization"`
	Purpose      string `bson:"purpose" json:"purpose"`
	Duration     string `bson:"duration,omitempty" json:"duration,omitempty"`
}

// ApprovalRequest is the shared record behind no-dues, event and MOU
// requests. Exactly one of the payload fields matching Type is set.
type ApprovalRequest struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type           string             `bson:"type" json:"type"`
	SubmittedBy    Submitter          `bson:"submittedBy" json:"submittedBy"`
	RecipientsFlow []Recipient        `bson:"recipientsFlow" json:"recipientsFlow"`
	CurrentStage   int                `bson:"currentStage" json:"currentStage"`
	Status         string             `bson:"status" json:"status"`
	Approvals      []ApprovalRecord   `bson:"approvals" json:"approvals"`
	Signatures     []SignatureRecord  `bson:"signatures,omitempty" json:"signatures,omitempty"`
	Rejection      *RejectionInfo     `bson:"rejection,omitempty" json:"rejectionReason,omitempty"`
	Document       *Document          `bson:"document,omitempty" json:"document,omitempty"`

	NoDues *NoDuesPayload `bson:"noDues,omitempty" json:"noDues,omitempty"`
	Event  *EventPayload  `bson:"event,omitempty" json:"event,omitempty"`
	Mou    *MouPayload    `bson:"mou,omitempty" json:"mou,omitempty"`

	// Set on an event request created by resubmitting a rejected one.
	PreviousRequestID *primitive.ObjectID `bson:"previousRequestId,omitempty" json:"previousRequestId,omitempty"`

	SubmittedAt time.Time `bson:"submittedAt" json:"submittedAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CurrentRecipient returns the recipient who must act next, or nil when
// the chain has run out or the request is terminal.
func (r *ApprovalRequest) CurrentRecipient() *Recipient {
	if r.CurrentStage < 0 || r.CurrentStage >= len(r.RecipientsFlow) {
		return nil
	}
	return &r.RecipientsFlow[r.CurrentStage]
}
