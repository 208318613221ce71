package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

func flightDoc(id primitive.ObjectID, ref string, seats int32) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "flight_id", Value: ref},
		{Key: "airline_name", Value: "Swiss"},
		{Key: "source", Value: "ZRH"},
		{Key: "destination", Value: "JFK"},
		{Key: "available_seats", Value: seats},
	}
}

func TestMongoFlightRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("decrement success", func(mt *mtest.T) {
		repo := NewMongoFlightRepository(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: flightDoc(id, "FL123", 98)}))

		f, err := repo.DecrementSeats(context.Background(), "FL123", 2, time.Now())
		require.NoError(mt, err)
		assert.Equal(mt, 98, f.AvailableSeats)
		assert.Equal(mt, id.Hex(), f.ID)
		assert.Equal(mt, "FL123", f.FlightReference)
	})

	mt.Run("decrement insufficient seats", func(mt *mtest.T) {
		repo := NewMongoFlightRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, flightDoc(primitive.NewObjectID(), "FL123", 98)),
		)

		_, err := repo.DecrementSeats(context.Background(), "FL123", 99, time.Now())
		assert.ErrorIs(mt, err, domain.ErrInsufficientSeats)
	})

	mt.Run("decrement unknown flight", func(mt *mtest.T) {
		repo := NewMongoFlightRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.DecrementSeats(context.Background(), "NOPE", 1, time.Now())
		assert.ErrorIs(mt, err, domain.ErrFlightNotFound)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewMongoFlightRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		err := repo.Create(context.Background(), &domain.Flight{FlightReference: "FL123"})
		assert.ErrorIs(mt, err, domain.ErrDuplicateFlight)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoFlightRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		f := &domain.Flight{FlightReference: "FL123", AvailableSeats: 100}
		require.NoError(mt, repo.Create(context.Background(), f))
		assert.NotEmpty(mt, f.ID)
	})
}
