// handlers/audit_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusflow/models"
	"campusflow/utils"
)

// ListAuditLogs returns the audit trail, newest first, with optional
// action/entity/user filters and page/limit pagination.
func ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	filter := bson.M{}
	if action := r.URL.Query().Get("action"); action != "" {
		filter["action"] = action
	}
	if entityType := r.URL.Query().Get("entityType"); entityType != "" {
		filter["entityType"] = entityType
	}
	if userEmail := r.URL.Query().Get("userEmail"); userEmail != "" {
		filter["userEmail"] = userEmail
	}

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	total, err := auditLogCollection.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("ListAuditLogs - count error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count audit logs")
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := auditLogCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("ListAuditLogs - find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch audit logs")
		return
	}
	defer cursor.Close(ctx)

	logs := []models.AuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		log.Printf("ListAuditLogs - decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode audit logs")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"logs":    logs,
		"total":   total,
		"page":    page,
		"limit":   limit,
		"success": true,
	})
}
