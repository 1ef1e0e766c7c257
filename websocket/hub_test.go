package websocket

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusflow/config"
	"campusflow/models"
	"campusflow/utils"
)

func issueToken(t *testing.T, role string) string {
	t.Helper()
	config.JWTKey = []byte("test-signing-key")
	config.JWTExpiration = time.Hour

	token, err := utils.GenerateJWT("64f000000000000000000001", "Test User", "test@campus.edu", role)
	require.NoError(t, err)
	return token
}

func TestAuthenticateUpgrade(t *testing.T) {
	token := issueToken(t, models.RoleStudent)

	t.Run("token query parameter", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/ws?token="+token, nil)
		claims, err := authenticateUpgrade(r)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStudent, claims.Role)
		assert.Equal(t, "test@campus.edu", claims.Email)
	})

	t.Run("bearer subprotocol", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/ws", nil)
		r.Header.Set("Sec-Websocket-Protocol", "bearer, "+token)
		claims, err := authenticateUpgrade(r)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStudent, claims.Role)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/ws", nil)
		_, err := authenticateUpgrade(r)
		assert.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/ws?token=not.a.jwt", nil)
		_, err := authenticateUpgrade(r)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		config.JWTKey = []byte("test-signing-key")
		config.JWTExpiration = -time.Hour
		expired, err := utils.GenerateJWT("64f000000000000000000001", "Test User", "test@campus.edu", models.RoleStudent)
		require.NoError(t, err)
		config.JWTExpiration = time.Hour

		r := httptest.NewRequest("GET", "/api/ws?token="+expired, nil)
		_, err = authenticateUpgrade(r)
		assert.Error(t, err)
	})
}

func registerTestClient(t *testing.T, role string) *client {
	t.Helper()
	c := &client{send: make(chan []byte, 4), role: role}
	hub.mutex.Lock()
	hub.clients[c] = true
	hub.mutex.Unlock()
	t.Cleanup(func() {
		hub.mutex.Lock()
		delete(hub.clients, c)
		hub.mutex.Unlock()
	})
	return c
}

func TestAuditFramesReachOnlyAdmins(t *testing.T) {
	admin := registerTestClient(t, models.RoleAdmin)
	student := registerTestClient(t, models.RoleStudent)

	SendAudit(map[string]string{"action": "nodues_approve"})

	assert.Len(t, admin.send, 1)
	assert.Len(t, student.send, 0)
}

func TestTallyFramesReachEveryone(t *testing.T) {
	admin := registerTestClient(t, models.RoleAdmin)
	student := registerTestClient(t, models.RoleStudent)

	SendTallyUpdate(map[string]int{"totalVotes": 3})

	assert.Len(t, admin.send, 1)
	assert.Len(t, student.send, 1)
}
