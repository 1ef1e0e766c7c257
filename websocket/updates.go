package websocket

import (
	"encoding/json"
	"log"
	"time"

	"campusflow/models"
)

// Update is the envelope for every broadcast frame.
type Update struct {
	Type      string      `json:"type"` // REQUEST_STATUS_CHANGE, TALLY_UPDATE, AUDIT_EVENT, ELECTION_STATUS
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func broadcast(update Update) {
	broadcastTo(update, nil)
}

// broadcastTo fans an update out to connected clients, skipping those
// whose role the allow filter declines. A nil filter means everyone.
func broadcastTo(update Update, allow func(role string) bool) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Failed to marshal websocket update: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for c := range hub.clients {
		if allow != nil && !allow(c.role) {
			continue
		}
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(hub.clients, c)
		}
	}
}

// SendRequestStatusChange notifies dashboards that an approval request
// moved stage or reached a terminal state.
func SendRequestStatusChange(requestType, requestID, oldStatus, newStatus string, currentStage int) {
	broadcast(Update{
		Type: "REQUEST_STATUS_CHANGE",
		Data: map[string]interface{}{
			"requestType":  requestType,
			"requestId":    requestID,
			"oldStatus":    oldStatus,
			"newStatus":    newStatus,
			"currentStage": currentStage,
		},
		Timestamp: time.Now().UTC(),
	})
}

// SendTallyUpdate pushes fresh results after a successful vote cast.
func SendTallyUpdate(tally interface{}) {
	broadcast(Update{Type: "TALLY_UPDATE", Data: tally, Timestamp: time.Now().UTC()})
}

// SendElectionStatus announces the election opening or closing.
func SendElectionStatus(open bool) {
	broadcast(Update{
		Type:      "ELECTION_STATUS",
		Data:      map[string]bool{"votingOpen": open},
		Timestamp: time.Now().UTC(),
	})
}

// SendAudit mirrors audit log entries to connected admin dashboards.
// Audit records carry emails, IPs and user agents, so only admin
// clients receive these frames; the REST counterpart is admin-gated the
// same way.
func SendAudit(entry interface{}) {
	broadcastTo(
		Update{Type: "AUDIT_EVENT", Data: entry, Timestamp: time.Now().UTC()},
		func(role string) bool { return role == models.RoleAdmin },
	)
}
