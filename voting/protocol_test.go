package voting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"campusflow/models"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func activeAuth(window time.Duration) models.VoterAuthorization {
	return NewAuthorization(primitive.NewObjectID(), "s1@lnmiit.ac.in", t0, window)
}

func TestNewAuthorizationWindow(t *testing.T) {
	auth := activeAuth(5 * time.Minute)
	assert.Equal(t, models.AuthStatusActive, auth.Status)
	assert.Equal(t, t0, auth.AuthorizedAt)
	assert.Equal(t, t0.Add(5*time.Minute), auth.ExpiresAt)
}

func TestEffectiveStatus(t *testing.T) {
	auth := activeAuth(5 * time.Minute)

	assert.Equal(t, models.AuthStatusActive, EffectiveStatus(&auth, t0.Add(4*time.Minute)))
	assert.Equal(t, models.AuthStatusExpired, EffectiveStatus(&auth, t0.Add(6*time.Minute)))

	auth.Status = models.AuthStatusVoted
	assert.Equal(t, models.AuthStatusVoted, EffectiveStatus(&auth, t0.Add(6*time.Minute)))
}

func TestCheckCastable(t *testing.T) {
	t.Run("nil authorization", func(t *testing.T) {
		err := CheckCastable(nil, t0)
		require.Error(t, err)
		assert.Equal(t, models.KindNotAuthorized, models.KindOf(err))
	})

	t.Run("active within window", func(t *testing.T) {
		auth := activeAuth(5 * time.Minute)
		require.NoError(t, CheckCastable(&auth, t0.Add(4*time.Minute)))
	})

	t.Run("active past window fails expired", func(t *testing.T) {
		auth := activeAuth(5 * time.Minute)
		err := CheckCastable(&auth, t0.Add(6*time.Minute))
		require.Error(t, err)
		assert.Equal(t, models.KindExpired, models.KindOf(err))
	})

	t.Run("voted and revoked are terminal", func(t *testing.T) {
		auth := activeAuth(5 * time.Minute)
		auth.Status = models.AuthStatusVoted
		assert.Equal(t, models.KindNotAuthorized, models.KindOf(CheckCastable(&auth, t0)))

		auth.Status = models.AuthStatusRevoked
		assert.Equal(t, models.KindNotAuthorized, models.KindOf(CheckCastable(&auth, t0)))
	})
}

func approvedCandidature(name, position string) models.Candidature {
	return models.Candidature{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Position: position,
		Status:   models.CandidatureApproved,
	}
}

func TestBallotPositions(t *testing.T) {
	candidatures := []models.Candidature{
		approvedCandidature("P1", "President"),
		approvedCandidature("P2", "President"),
		approvedCandidature("S1", "Secretary"),
		{ID: primitive.NewObjectID(), Name: "X", Position: "Treasurer", Status: models.CandidaturePending},
	}
	assert.Equal(t, []string{"President", "Secretary"}, BallotPositions(candidatures))
}

func TestBallotComplete(t *testing.T) {
	positions := []string{"President", "Secretary"}
	voter := primitive.NewObjectID()

	assert.False(t, BallotComplete(nil, positions))
	assert.False(t, BallotComplete([]models.Vote{{VoterID: voter, Position: "President"}}, positions))
	assert.True(t, BallotComplete([]models.Vote{
		{VoterID: voter, Position: "President"},
		{VoterID: voter, Position: "Secretary"},
	}, positions))

	// empty ballot never completes; nothing to vote for
	assert.False(t, BallotComplete(nil, nil))
}

func TestComputeTally(t *testing.T) {
	p1 := approvedCandidature("Aarav", "President")
	p2 := approvedCandidature("Diya", "President")
	s1 := approvedCandidature("Kabir", "Secretary")
	pending := models.Candidature{ID: primitive.NewObjectID(), Name: "Rogue", Position: "President", Status: models.CandidaturePending}
	candidatures := []models.Candidature{p1, p2, s1, pending}

	vote := func(c models.Candidature) models.Vote {
		return models.Vote{ID: primitive.NewObjectID(), VoterID: primitive.NewObjectID(), Position: c.Position, CandidateID: c.ID, CastAt: t0}
	}

	t.Run("counts and percentages", func(t *testing.T) {
		votes := []models.Vote{vote(p1), vote(p1), vote(p2), vote(s1)}
		tally := ComputeTally(candidatures, votes, "")

		require.Len(t, tally.Positions, 2)
		assert.Equal(t, 4, tally.TotalVotes)

		president := tally.Positions[0]
		assert.Equal(t, "President", president.Position)
		assert.Equal(t, 3, president.TotalVotes)
		require.Len(t, president.Results, 2)
		assert.Equal(t, p1.ID, president.Results[0].CandidateID)
		assert.Equal(t, 2, president.Results[0].VoteCount)
		assert.InDelta(t, 66.67, president.Results[0].Percentage, 0.01)
		assert.InDelta(t, 33.33, president.Results[1].Percentage, 0.01)
	})

	t.Run("no votes yields zero percentages", func(t *testing.T) {
		tally := ComputeTally(candidatures, nil, "President")
		require.Len(t, tally.Positions, 1)
		assert.Equal(t, 0, tally.Positions[0].TotalVotes)
		for _, r := range tally.Positions[0].Results {
			assert.Equal(t, 0, r.VoteCount)
			assert.Equal(t, 0.0, r.Percentage)
		}
	})

	t.Run("ties break by candidate id ascending", func(t *testing.T) {
		votes := []models.Vote{vote(p1), vote(p2)}
		tally := ComputeTally(candidatures, votes, "President")
		require.Len(t, tally.Positions, 1)
		results := tally.Positions[0].Results
		require.Len(t, results, 2)
		assert.True(t, results[0].CandidateID.Hex() < results[1].CandidateID.Hex())
	})

	t.Run("votes for unapproved candidates are ignored", func(t *testing.T) {
		votes := []models.Vote{vote(pending)}
		tally := ComputeTally(candidatures, votes, "President")
		assert.Equal(t, 0, tally.TotalVotes)
		assert.Equal(t, 0, tally.Positions[0].TotalVotes)
	})

	t.Run("position filter", func(t *testing.T) {
		votes := []models.Vote{vote(p1), vote(s1)}
		tally := ComputeTally(candidatures, votes, "Secretary")
		require.Len(t, tally.Positions, 1)
		assert.Equal(t, "Secretary", tally.Positions[0].Position)
		assert.Equal(t, 1, tally.TotalVotes)
	})
}
