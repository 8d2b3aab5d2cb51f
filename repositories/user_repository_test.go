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

const usersNS = "microtask.users"

func userDoc(email string, coins int64) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "email", Value: email},
		{Key: "name", Value: "Wendy"},
		{Key: "role", Value: string(models.RoleWorker)},
		{Key: "coinBalance", Value: coins},
	}
}

func TestUserRepository_AdjustCoins(t *testing.T) {
	mt := newMockT(t)

	mt.Run("credit has no balance guard", func(mt *mtest.T) {
		mt.AddMockResponses(matched(userDoc("w@example.com", 90)))
		repo := NewUserRepository(mt.DB)

		user, err := repo.AdjustCoins(context.Background(), "w@example.com", 40)
		require.NoError(mt, err)
		assert.Equal(mt, int64(90), user.CoinBalance)

		cmd := nextCommand(mt)
		_, err = cmd.LookupErr("query", "coinBalance")
		assert.Error(mt, err, "credit must not filter on balance")
		assert.Equal(mt, int64(40), cmd.Lookup("update", "$inc", "coinBalance").Int64())
	})

	mt.Run("debit filters on the balance it removes", func(mt *mtest.T) {
		mt.AddMockResponses(matched(userDoc("w@example.com", 10)))
		repo := NewUserRepository(mt.DB)

		user, err := repo.AdjustCoins(context.Background(), "w@example.com", -30)
		require.NoError(mt, err)
		assert.Equal(mt, int64(10), user.CoinBalance)

		cmd := nextCommand(mt)
		assert.Equal(mt, "w@example.com", cmd.Lookup("query", "email").StringValue())
		assert.Equal(mt, int64(30), cmd.Lookup("query", "coinBalance", "$gte").Int64())
		assert.Equal(mt, int64(-30), cmd.Lookup("update", "$inc", "coinBalance").Int64())
	})

	mt.Run("refused debit on a short balance", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(usersNS, userDoc("w@example.com", 5)))
		repo := NewUserRepository(mt.DB)

		_, err := repo.AdjustCoins(context.Background(), "w@example.com", -30)
		assert.ErrorIs(mt, err, models.ErrInsufficientBalance)
	})

	mt.Run("refused debit for an unknown user", func(mt *mtest.T) {
		mt.AddMockResponses(unmatched(), batch(usersNS))
		repo := NewUserRepository(mt.DB)

		_, err := repo.AdjustCoins(context.Background(), "ghost@example.com", -30)
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_SetCoins(t *testing.T) {
	mt := newMockT(t)

	mt.Run("retries after losing a race", func(mt *mtest.T) {
		mt.AddMockResponses(
			batch(usersNS, userDoc("b@example.com", 50)),
			unmatched(),
			batch(usersNS, userDoc("b@example.com", 70)),
			matched(userDoc("b@example.com", 20)),
		)
		repo := NewUserRepository(mt.DB)

		user, err := repo.SetCoins(context.Background(), "b@example.com", 20)
		require.NoError(mt, err)
		assert.Equal(mt, int64(20), user.CoinBalance)

		nextCommand(mt)
		first := nextCommand(mt)
		assert.Equal(mt, int64(50), first.Lookup("query", "coinBalance").Int64())
		assert.Equal(mt, int64(-30), first.Lookup("update", "$inc", "coinBalance").Int64())
		nextCommand(mt)
		second := nextCommand(mt)
		assert.Equal(mt, int64(70), second.Lookup("query", "coinBalance").Int64())
		assert.Equal(mt, int64(-50), second.Lookup("update", "$inc", "coinBalance").Int64())
	})

	mt.Run("gives up after bounded attempts", func(mt *mtest.T) {
		for i := 0; i < maxSetCoinsAttempts; i++ {
			mt.AddMockResponses(batch(usersNS, userDoc("b@example.com", int64(i))), unmatched())
		}
		repo := NewUserRepository(mt.DB)

		_, err := repo.SetCoins(context.Background(), "b@example.com", 20)
		assert.ErrorIs(mt, err, models.ErrStatusConflict)
	})

	mt.Run("negative value is rejected before any write", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)

		_, err := repo.SetCoins(context.Background(), "b@example.com", -1)
		assert.ErrorIs(mt, err, models.ErrInvalidInput)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestUserRepository_Ensure(t *testing.T) {
	mt := newMockT(t)

	mt.Run("inserts a new user", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 0},
				bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}}}},
			),
			batch(usersNS, userDoc("new@example.com", 10)),
		)
		repo := NewUserRepository(mt.DB)

		created, user, err := repo.Ensure(context.Background(), &models.User{Email: "new@example.com", Role: models.RoleWorker, CoinBalance: 10})
		require.NoError(mt, err)
		assert.True(mt, created)
		assert.Equal(mt, int64(10), user.CoinBalance)
	})

	mt.Run("existing user is returned unchanged", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
			batch(usersNS, userDoc("old@example.com", 75)),
		)
		repo := NewUserRepository(mt.DB)

		created, user, err := repo.Ensure(context.Background(), &models.User{Email: "old@example.com", Role: models.RoleWorker, CoinBalance: 10})
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, int64(75), user.CoinBalance)
	})

	mt.Run("losing a concurrent upsert reads the winner", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKey(), batch(usersNS, userDoc("race@example.com", 10)))
		repo := NewUserRepository(mt.DB)

		created, user, err := repo.Ensure(context.Background(), &models.User{Email: "race@example.com", Role: models.RoleWorker, CoinBalance: 10})
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, "race@example.com", user.Email)
	})

	mt.Run("other write errors surface", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "Document failed validation"}))
		repo := NewUserRepository(mt.DB)

		_, _, err := repo.Ensure(context.Background(), &models.User{Email: "bad@example.com", Role: models.RoleWorker})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	mt := newMockT(t)

	mt.Run("nothing deleted reads as not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := NewUserRepository(mt.DB)

		err := repo.Delete(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})
}
