// utils/utils.go
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"campusflow/models"
)

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithDomainError maps the error taxonomy to HTTP codes and a
// machine-readable kind. Non-domain errors become opaque 500s.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	var de *models.DomainError
	if !errors.As(err, &de) {
		RespondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	code := http.StatusInternalServerError
	switch de.Kind {
	case models.KindValidation:
		code = http.StatusBadRequest
	case models.KindNotAuthorized:
		code = http.StatusForbidden
	case models.KindInvalidState, models.KindConflict, models.KindAlreadyVoted:
		code = http.StatusConflict
	case models.KindExpired:
		code = http.StatusGone
	case models.KindSignatureMismatch:
		code = http.StatusUnprocessableEntity
	case models.KindNotFound:
		code = http.StatusNotFound
	case models.KindDependencyUnavailable:
		code = http.StatusServiceUnavailable
	}

	RespondWithJSON(w, code, map[string]string{
		"error": de.Message,
		"kind":  string(de.Kind),
	})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GenerateRandomPassword(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "fallbackpass123" // very rare fallback
	}
	return base64.URLEncoding.EncodeToString(b)[:length]
}
