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

const withdrawalsNS = "microtask.withdrawals"

func withdrawalDoc(id primitive.ObjectID, status models.WithdrawalStatus) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "workerEmail", Value: "w@example.com"},
		{Key: "withdrawalCoins", Value: int64(200)},
		{Key: "paymentSystem", Value: "bkash"},
		{Key: "status", Value: string(status)},
	}
}

func TestWithdrawalRepository_Transition(t *testing.T) {
	mt := newMockT(t)
	id := primitive.NewObjectID()

	mt.Run("approval stamps processedAt", func(mt *mtest.T) {
		mt.AddMockResponses(matched(withdrawalDoc(id, models.WithdrawalApproved)))
		repo := NewWithdrawalRepository(mt.DB)

		w, err := repo.Transition(context.Background(), id, models.WithdrawalPending, models.WithdrawalApproved)
		require.NoError(mt, err)
		assert.Equal(mt, models.WithdrawalApproved, w.Status)

		cmd := nextCommand(mt)
		assert.Equal(mt, string(models.WithdrawalPending), cmd.Lookup("query", "status").StringValue())
		_, err = cmd.LookupErr("update", "$set", "processedAt")
		assert.NoError(mt, err)
	})

	mt.Run("release clears processedAt", func(mt *mtest.T) {
		mt.AddMockResponses(matched(withdrawalDoc(id, models.WithdrawalPending)))
		repo := NewWithdrawalRepository(mt.DB)

		_, err := repo.Transition(context.Background(), id, models.WithdrawalApproved, models.WithdrawalPending)
		require.NoError(mt, err)

		cmd := nextCommand(mt)
		_, err = cmd.LookupErr("update", "$unset", "processedAt")
		assert.NoError(mt, err)
		_, err = cmd.LookupErr("update", "$set", "processedAt")
		assert.Error(mt, err)
	})

	mt.Run("already approved is a status conflict", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(withdrawalsNS, withdrawalDoc(id, models.WithdrawalApproved)))
		repo := NewWithdrawalRepository(mt.DB)

		_, err := repo.Transition(context.Background(), id, models.WithdrawalPending, models.WithdrawalApproved)
		assert.ErrorIs(mt, err, models.ErrStatusConflict)
	})

	mt.Run("missing withdrawal", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(withdrawalsNS))
		repo := NewWithdrawalRepository(mt.DB)

		_, err := repo.Transition(context.Background(), id, models.WithdrawalPending, models.WithdrawalApproved)
		assert.ErrorIs(mt, err, models.ErrWithdrawalNotFound)
	})
}
