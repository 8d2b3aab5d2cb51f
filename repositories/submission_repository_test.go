package repositories

import (
	"context"
	"testing"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const submissionsNS = "microtask.submissions"

func submissionDoc(id primitive.ObjectID, status models.SubmissionStatus) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "taskId", Value: primitive.NewObjectID()},
		{Key: "taskAmount", Value: int64(10)},
		{Key: "workerEmail", Value: "w@example.com"},
		{Key: "buyerEmail", Value: "b@example.com"},
		{Key: "status", Value: string(status)},
	}
}

func TestSubmissionRepository_Transition(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()

	mt.Run("moves from the expected status", func(mt *mtest.T) {
		mt.AddMockResponses(matched(submissionDoc(id, models.SubmissionApproved)))
		repo := NewSubmissionRepository(mt.DB)

		sub, err := repo.Transition(context.Background(), id, models.SubmissionPending, models.SubmissionApproved)
		require.NoError(mt, err)
		assert.Equal(mt, models.SubmissionApproved, sub.Status)

		cmd := nextCommand(mt)
		assert.Equal(mt, string(models.SubmissionPending), cmd.Lookup("query", "status").StringValue())
		assert.Equal(mt, string(models.SubmissionApproved), cmd.Lookup("update", "$set", "status").StringValue())
	})

	mt.Run("already reviewed is a status conflict", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(submissionsNS, submissionDoc(id, models.SubmissionRejected)))
		repo := NewSubmissionRepository(mt.DB)

		_, err := repo.Transition(context.Background(), id, models.SubmissionPending, models.SubmissionApproved)
		assert.ErrorIs(mt, err, models.ErrStatusConflict)
	})

	mt.Run("missing submission", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(submissionsNS))
		repo := NewSubmissionRepository(mt.DB)

		_, err := repo.Transition(context.Background(), id, models.SubmissionPending, models.SubmissionApproved)
		assert.ErrorIs(mt, err, models.ErrSubmissionNotFound)
	})
}
