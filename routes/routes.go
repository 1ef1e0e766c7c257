package routes

import (
	"github.com/gorilla/mux"

	"campusflow/handlers"
	"campusflow/middleware"
	"campusflow/websocket"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly  = []string{"GET", "OPTIONS"}
	MethodsPostOnly = []string{"POST", "OPTIONS"}
	MethodsPutOnly  = []string{"PUT", "OPTIONS"}
)

// Route grouping constants
const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/validate", handlers.ValidateToken).Methods(MethodsGetOnly...)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	// ====================
	// USER / PROFILE
	// ====================
	apiRouter.HandleFunc("/user/me", handlers.GetCurrentUser).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/user/wallet", handlers.UpdateWallet).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/users", handlers.CreateUser).Methods(MethodsPostOnly...)

	// ====================
	// NO-DUES CLEARANCE
	// ====================
	apiRouter.HandleFunc("/nodues/submit", handlers.SubmitNoDues).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/nodues/pending", handlers.GetPendingNoDues).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/nodues/approved", handlers.GetApprovedNoDues).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/nodues/mine", handlers.GetMyNoDues).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/nodues/approve/{id}", handlers.ApproveNoDues).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/nodues/reject/{id}", handlers.RejectNoDues).Methods(MethodsPutOnly...)

	// ====================
	// EVENT PERMISSIONS
	// ====================
	apiRouter.HandleFunc("/events", handlers.CreateEvent).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/events/pending", handlers.GetPendingEvents).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/events/approved", handlers.GetApprovedEvents).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/events/rejected", handlers.GetRejectedEvents).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/events/mine", handlers.GetMyEvents).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/events/approve/{id}", handlers.ApproveEvent).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/events/reject/{id}", handlers.RejectEvent).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/events/{id}/resubmit", handlers.ResubmitEvent).Methods(MethodsPostOnly...)

	// ====================
	// MOU SIGNING
	// ====================
	apiRouter.HandleFunc("/mous", handlers.CreateMou).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/mous", handlers.GetMous).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/mous/pending", handlers.GetPendingMous).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/mous/payload/{id}", handlers.GetMouSigningPayload).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/mous/sign/{id}", handlers.SignMou).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/mous/reject/{id}", handlers.RejectMou).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/mous/{id}/verify", handlers.VerifyMouChain).Methods(MethodsGetOnly...)

	// ====================
	// VOTING
	// ====================
	apiRouter.HandleFunc("/voting/voters", handlers.ListVoters).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/voting/voters/approve/{id}", handlers.AuthorizeVoter).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/voting/voters/revoke/{id}", handlers.RevokeAuthorization).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/voting/cast", handlers.CastVote).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/voting/status", handlers.GetVotingStatus).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/voting/toggle-status", handlers.ToggleVotingStatus).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/voting/results", handlers.GetResults).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/voting/reset", handlers.ResetElection).Methods(MethodsPostOnly...)

	// ====================
	// CANDIDATURES
	// ====================
	apiRouter.HandleFunc("/candidatures", handlers.SubmitCandidature).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/candidatures", handlers.ListCandidatures).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/candidatures/mine", handlers.GetMyCandidatures).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/candidatures/{id}/approve", handlers.ApproveCandidature).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/candidatures/{id}/reject", handlers.RejectCandidature).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/candidatures/{id}/revert", handlers.RevertCandidature).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/candidatures/{id}", handlers.UpdateCandidature).Methods(MethodsPutOnly...)

	// ====================
	// DOCUMENTS
	// ====================
	apiRouter.HandleFunc("/documents/upload", handlers.UploadDocument).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/documents/{hash}", handlers.GetDocument).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/documents/{hash}/meta", handlers.GetDocumentMeta).Methods(MethodsGetOnly...)

	// ====================
	// AUDIT TRAIL
	// ====================
	apiRouter.HandleFunc("/audit", handlers.ListAuditLogs).Methods(MethodsGetOnly...)

	// ====================
	// LIVE UPDATES (WebSocket)
	// ====================
	apiRouter.HandleFunc("/ws", websocket.ServeWS).Methods("GET")
}
