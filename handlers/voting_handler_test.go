package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/models"
)

func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{Code: 11000, Message: "E11000 duplicate key error"},
		},
	}
}

func TestMapVoteInsertError(t *testing.T) {
	t.Run("duplicate key means already voted", func(t *testing.T) {
		err := mapVoteInsertError(duplicateKeyError())
		assert.Equal(t, models.KindAlreadyVoted, models.KindOf(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := mapVoteInsertError(cause)
		assert.Equal(t, cause, err)
		assert.Empty(t, models.KindOf(err))
	})
}

func TestMapAuthorizationInsertError(t *testing.T) {
	t.Run("duplicate key means conflicting active grant", func(t *testing.T) {
		err := mapAuthorizationInsertError(duplicateKeyError())
		assert.Equal(t, models.KindConflict, models.KindOf(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("server selection timeout")
		err := mapAuthorizationInsertError(cause)
		assert.Equal(t, cause, err)
		assert.Empty(t, models.KindOf(err))
	})
}
