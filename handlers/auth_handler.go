// handlers/auth_handler.go
package handlers

import (
	"log"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/models"
	"campusflow/utils"
)

func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case models.RoleStudent, models.RoleFaculty, models.RoleCouncil, models.RoleAdmin:
		return role
	default:
		return models.RoleStudent
	}
}

// Login authenticates a user and issues a JWT.
func Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := decodeJSON(r, &creds); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := utils.ValidateStruct(creds); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	var user models.User
	err := userCollection.FindOne(r.Context(), bson.M{"email": creds.Email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// burn comparable time so missing users are indistinguishable
			_ = utils.CheckPasswordHash("dummy_password", "$2a$14$dummyhashfordummycomparison")
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("Login - database error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Authentication service unavailable")
		return
	}

	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	role := normalizeRole(user.Role)
	token, err := utils.GenerateJWT(user.ID.Hex(), user.Name, user.Email, role)
	if err != nil {
		log.Printf("Login - token generation failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	log.Printf("Login: %s (%s)", user.Email, role)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"user":    user,
		"success": true,
	})
}

// Logout is stateless server-side; the client drops its token.
func Logout(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logged out",
		"success": true,
	})
}

// ValidateToken confirms a bearer token and returns its claims.
func ValidateToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return
	}

	claims, err := utils.ValidateJWT(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"user": map[string]string{
			"id":    claims.UserID,
			"name":  claims.Name,
			"email": claims.Email,
			"role":  claims.Role,
		},
	})
}

// GetCurrentUser returns the authenticated user's profile.
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var user models.User
	err := userCollection.FindOne(r.Context(), bson.M{"_id": who.ID}).Decode(&user)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateWallet stores the signing wallet address on the user profile.
func UpdateWallet(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		WalletAddress string `json:"walletAddress" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	_, err := userCollection.UpdateOne(r.Context(),
		bson.M{"_id": who.ID},
		bson.M{"$set": bson.M{"walletAddress": req.WalletAddress}},
	)
	if err != nil {
		log.Printf("UpdateWallet - update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update wallet")
		return
	}

	writeAudit(r, who, "wallet_update", "user", who.ID, bson.M{"walletAddress": req.WalletAddress})
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Wallet updated",
		"success": true,
	})
}
