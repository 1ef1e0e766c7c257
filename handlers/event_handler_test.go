package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusflow/models"
)

func TestResubmissionPayload(t *testing.T) {
	original := &models.ApprovalRequest{
		Type: models.RequestTypeEvent,
		Event: &models.EventPayload{
			Title:     "Tech Fest",
			Venue:     "Main Auditorium",
			StartDate: time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 11, 18, 0, 0, 0, time.UTC),
			Budget:    50000,
		},
	}

	t.Run("no overrides keeps the original payload", func(t *testing.T) {
		payload, err := resubmissionPayload(original, eventOverrides{})
		require.NoError(t, err)
		assert.Equal(t, *original.Event, *payload)
	})

	t.Run("overrides replace only the given fields", func(t *testing.T) {
		payload, err := resubmissionPayload(original, eventOverrides{
			Venue:  "Open Grounds",
			Budget: 35000,
		})
		require.NoError(t, err)
		assert.Equal(t, "Tech Fest", payload.Title)
		assert.Equal(t, "Open Grounds", payload.Venue)
		assert.Equal(t, float64(35000), payload.Budget)
		assert.Equal(t, original.Event.StartDate, payload.StartDate)
	})

	t.Run("clone does not alias the original", func(t *testing.T) {
		payload, err := resubmissionPayload(original, eventOverrides{Title: "Tech Fest 2.0"})
		require.NoError(t, err)
		assert.Equal(t, "Tech Fest 2.0", payload.Title)
		assert.Equal(t, "Tech Fest", original.Event.Title)
	})

	t.Run("request without event payload is invalid state", func(t *testing.T) {
		corrupt := &models.ApprovalRequest{Type: models.RequestTypeEvent}
		_, err := resubmissionPayload(corrupt, eventOverrides{Title: "Anything"})
		assert.Equal(t, models.KindInvalidState, models.KindOf(err))
	})
}
