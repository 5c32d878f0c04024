package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRegisterExistingEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("email already taken", func(mt *mtest.T) {
		svc := NewAuthService(mt.DB.Collection("users"), mt.DB.Collection("blacklisted_tokens"))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "taskhub.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "name", Value: "Ana"},
			{Key: "email", Value: "ana@example.com"},
		}))

		_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "secret1")
		assert.ErrorIs(mt.T, err, ErrUserExists)
	})
}

// Two concurrent registrations can both pass the lookup; the loser's insert
// trips the unique email index and must still surface as ErrUserExists, not
// a generic failure.
func TestRegisterConcurrentDuplicateInsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate key on insert", func(mt *mtest.T) {
		svc := NewAuthService(mt.DB.Collection("users"), mt.DB.Collection("blacklisted_tokens"))

		mt.AddMockResponses(
			// lookup sees no user yet
			mtest.CreateCursorResponse(0, "taskhub.users", mtest.FirstBatch),
			// the other registration won the insert
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
		)

		_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "secret1")
		assert.ErrorIs(mt.T, err, ErrUserExists)
	})
}
