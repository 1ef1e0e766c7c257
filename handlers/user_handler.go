// handlers/user_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/models"
	"campusflow/utils"
)

// CreateUser provisions a portal account. When no password is supplied
// a temporary one is generated and returned once in the response; the
// unique email index rejects duplicate accounts.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	who, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	var body struct {
		Name       string `json:"name" validate:"required"`
		Email      string `json:"email" validate:"required,email"`
		Role       string `json:"role"`
		RollNumber string `json:"rollNumber"`
		Department string `json:"department"`
		Password   string `json:"password" validate:"omitempty,min=6"`
	}
	if err := decodeJSON(r, &body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if err := utils.ValidateStruct(body); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	tempPassword := ""
	password := body.Password
	if password == "" {
		tempPassword = utils.GenerateRandomPassword(12)
		password = tempPassword
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("CreateUser - hash error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: hash,
		Role:         normalizeRole(body.Role),
		RollNumber:   body.RollNumber,
		Department:   body.Department,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := userCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithDomainError(w, models.ErrConflict("a user with this email already exists"))
			return
		}
		log.Printf("CreateUser - insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeAudit(r, who, "user_create", "user", user.ID, bson.M{
		"email": user.Email,
		"role":  user.Role,
	})
	log.Printf("User %s (%s) provisioned by %s", user.Email, user.Role, who.Email)

	response := map[string]interface{}{
		"user":    user,
		"success": true,
	}
	if tempPassword != "" {
		response["temporaryPassword"] = tempPassword
	}
	utils.RespondWithJSON(w, http.StatusCreated, response)
}
