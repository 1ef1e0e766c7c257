// voting/protocol.go
//
// Time-boxed voter authorization and tabulation. Authorization expiry
// is lazy: nothing sweeps the store on a timer, every use compares the
// window against wall-clock time. Vote uniqueness and the one-Active-
// authorization rule are enforced by unique indexes at the storage
// layer; this package owns the pure protocol decisions.
package voting

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"campusflow/models"
)

// NewAuthorization grants a fresh voting window to a student.
func NewAuthorization(studentID primitive.ObjectID, studentEmail string, now time.Time, window time.Duration) models.VoterAuthorization {
	return models.VoterAuthorization{
		StudentID:    studentID,
		StudentEmail: studentEmail,
		AuthorizedAt: now,
		ExpiresAt:    now.Add(window),
		Status:       models.AuthStatusActive,
	}
}

// IsExpired reports whether a still-Active authorization has outlived
// its window.
func IsExpired(auth *models.VoterAuthorization, now time.Time) bool {
	return auth.Status == models.AuthStatusActive && now.After(auth.ExpiresAt)
}

// EffectiveStatus maps a stale Active record to Expired for readers,
// before any writer gets around to persisting the flip.
func EffectiveStatus(auth *models.VoterAuthorization, now time.Time) string {
	if IsExpired(auth, now) {
		return models.AuthStatusExpired
	}
	return auth.Status
}

// CheckCastable decides whether the holder of auth may cast a vote now.
// A nil auth means the student was never authorized.
func CheckCastable(auth *models.VoterAuthorization, now time.Time) error {
	if auth == nil {
		return models.ErrNotAuthorized("no active voting authorization")
	}
	switch auth.Status {
	case models.AuthStatusActive:
		if now.After(auth.ExpiresAt) {
			return models.ErrExpired("voting authorization has expired")
		}
		return nil
	case models.AuthStatusVoted:
		return models.ErrNotAuthorized("ballot already submitted for this authorization")
	case models.AuthStatusExpired:
		return models.ErrExpired("voting authorization has expired")
	case models.AuthStatusRevoked:
		return models.ErrNotAuthorized("voting authorization was revoked")
	default:
		return models.ErrInvalidState("authorization is in an unknown state")
	}
}

// BallotPositions returns the distinct positions that currently have at
// least one approved candidature, i.e. the positions a complete ballot
// covers.
func BallotPositions(candidatures []models.Candidature) []string {
	seen := map[string]bool{}
	var positions []string
	for _, c := range candidatures {
		if c.Status != models.CandidatureApproved || seen[c.Position] {
			continue
		}
		seen[c.Position] = true
		positions = append(positions, c.Position)
	}
	sort.Strings(positions)
	return positions
}

// BallotComplete reports whether the voter has covered every ballot
// position. The authorization flips to Voted only once this holds.
func BallotComplete(votes []models.Vote, ballotPositions []string) bool {
	if len(ballotPositions) == 0 {
		return false
	}
	voted := map[string]bool{}
	for _, v := range votes {
		voted[v.Position] = true
	}
	for _, p := range ballotPositions {
		if !voted[p] {
			return false
		}
	}
	return true
}

// ComputeTally aggregates votes into per-position results. Only
// approved candidatures are tabulated; results are sorted by vote count
// descending with ties broken by candidate id ascending so repeated
// reads return identical orderings. position narrows the tally when
// non-empty.
func ComputeTally(candidatures []models.Candidature, votes []models.Vote, position string) models.Tally {
	type slot struct {
		candidature models.Candidature
		count       int
	}

	byPosition := map[string][]*slot{}
	byCandidate := map[primitive.ObjectID]*slot{}
	for _, c := range candidatures {
		if c.Status != models.CandidatureApproved {
			continue
		}
		if position != "" && c.Position != position {
			continue
		}
		s := &slot{candidature: c}
		byPosition[c.Position] = append(byPosition[c.Position], s)
		byCandidate[c.ID] = s
	}

	totalVotes := 0
	positionVotes := map[string]int{}
	for _, v := range votes {
		s, ok := byCandidate[v.CandidateID]
		if !ok || s.candidature.Position != v.Position {
			continue
		}
		s.count++
		positionVotes[v.Position]++
		totalVotes++
	}

	var positions []string
	for p := range byPosition {
		positions = append(positions, p)
	}
	sort.Strings(positions)

	tally := models.Tally{Positions: []models.PositionTally{}, TotalVotes: totalVotes}
	for _, p := range positions {
		slots := byPosition[p]
		sort.Slice(slots, func(i, j int) bool {
			if slots[i].count != slots[j].count {
				return slots[i].count > slots[j].count
			}
			return slots[i].candidature.ID.Hex() < slots[j].candidature.ID.Hex()
		})

		pt := models.PositionTally{Position: p, TotalVotes: positionVotes[p], Results: []models.CandidateResult{}}
		for _, s := range slots {
			percentage := 0.0
			if pt.TotalVotes > 0 {
				percentage = float64(s.count) / float64(pt.TotalVotes) * 100
			}
			pt.Results = append(pt.Results, models.CandidateResult{
				CandidateID: s.candidature.ID,
				Name:        s.candidature.Name,
				VoteCount:   s.count,
				Percentage:  percentage,
			})
		}
		tally.Positions = append(tally.Positions, pt)
	}
	return tally
}
