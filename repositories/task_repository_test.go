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

const tasksNS = "microtask.tasks"

func taskDoc(id primitive.ObjectID, slots int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "buyerEmail", Value: "b@example.com"},
		{Key: "title", Value: "Follow our page"},
		{Key: "payPerSubmission", Value: int64(10)},
		{Key: "requiredWorkers", Value: slots},
	}
}

func TestTaskRepository_ConsumeSlot(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()

	mt.Run("takes one slot from an open task", func(mt *mtest.T) {
		mt.AddMockResponses(matched(taskDoc(id, 2)))
		repo := NewTaskRepository(mt.DB)

		task, err := repo.ConsumeSlot(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), task.RequiredWorkers)

		cmd := nextCommand(mt)
		assert.Equal(mt, int32(0), cmd.Lookup("query", "requiredWorkers", "$gt").Int32())
		assert.Equal(mt, int32(-1), cmd.Lookup("update", "$inc", "requiredWorkers").Int32())
	})

	mt.Run("full task reports no slot", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(tasksNS, taskDoc(id, 0)))
		repo := NewTaskRepository(mt.DB)

		_, err := repo.ConsumeSlot(context.Background(), id)
		assert.ErrorIs(mt, err, models.ErrSlotUnavailable)
	})

	mt.Run("missing task reports not found", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(tasksNS))
		repo := NewTaskRepository(mt.DB)

		_, err := repo.ConsumeSlot(context.Background(), id)
		assert.ErrorIs(mt, err, models.ErrTaskNotFound)
	})
}

func TestTaskRepository_ReleaseSlot(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()

	mt.Run("returns a slot", func(mt *mtest.T) {
		mt.AddMockResponses(matched(taskDoc(id, 3)))
		repo := NewTaskRepository(mt.DB)

		task, err := repo.ReleaseSlot(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), task.RequiredWorkers)
		assert.Equal(mt, int32(1), nextCommand(mt).Lookup("update", "$inc", "requiredWorkers").Int32())
	})

	mt.Run("deleted task", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched())
		repo := NewTaskRepository(mt.DB)

		_, err := repo.ReleaseSlot(context.Background(), id)
		assert.ErrorIs(mt, err, models.ErrTaskNotFound)
	})
}
