package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

type flightDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	FlightID       string             `bson:"flight_id"`
	AirlineName    string             `bson:"airline_name"`
	Source         string             `bson:"source"`
	Destination    string             `bson:"destination"`
	DepartureTime  time.Time          `bson:"departure_time"`
	ArrivalTime    time.Time          `bson:"arrival_time"`
	AvailableSeats int                `bson:"available_seats"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *flightDocument) toDomain() *domain.Flight {
	return &domain.Flight{
		ID:              d.ID.Hex(),
		FlightReference: d.FlightID,
		AirlineName:     d.AirlineName,
		Source:          d.Source,
		Destination:     d.Destination,
		DepartureTime:   d.DepartureTime,
		ArrivalTime:     d.ArrivalTime,
		AvailableSeats:  d.AvailableSeats,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type MongoFlightRepository struct {
	flights *mongo.Collection
}

func NewMongoFlightRepository(flights *mongo.Collection) FlightRepository {
	return &MongoFlightRepository{flights: flights}
}

// EnsureFlightIndexes creates the unique index on the business flight id.
func EnsureFlightIndexes(ctx context.Context, flights *mongo.Collection) error {
	_, err := flights.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "flight_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "create flight_id index")
}

func (r *MongoFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	cur, err := r.flights.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "departure_time", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list flights")
	}
	defer cur.Close(ctx)

	flights := make([]domain.Flight, 0)
	for cur.Next(ctx) {
		var doc flightDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode flight")
		}
		flights = append(flights, *doc.toDomain())
	}
	return flights, cur.Err()
}

func (r *MongoFlightRepository) GetByFlightReference(ctx context.Context, flightRef string) (*domain.Flight, error) {
	var doc flightDocument
	err := r.flights.FindOne(ctx, bson.D{{Key: "flight_id", Value: flightRef}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrFlightNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get flight")
	}
	return doc.toDomain(), nil
}

func (r *MongoFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	doc := flightDocument{
		ID:             primitive.NewObjectID(),
		FlightID:       flight.FlightReference,
		AirlineName:    flight.AirlineName,
		Source:         flight.Source,
		Destination:    flight.Destination,
		DepartureTime:  flight.DepartureTime,
		ArrivalTime:    flight.ArrivalTime,
		AvailableSeats: flight.AvailableSeats,
		CreatedAt:      flight.CreatedAt,
		UpdatedAt:      flight.UpdatedAt,
	}
	if _, err := r.flights.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateFlight
		}
		return errors.Wrap(err, "insert flight")
	}
	flight.ID = doc.ID.Hex()
	return nil
}

func (r *MongoFlightRepository) DecrementSeats(ctx context.Context, flightRef string, count int, now time.Time) (*domain.Flight, error) {
	filter := bson.D{
		{Key: "flight_id", Value: flightRef},
		{Key: "available_seats", Value: bson.D{{Key: "$gte", Value: count}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "available_seats", Value: -count}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}

	var doc flightDocument
	err := r.flights.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "decrement seats")
	}

	if _, err := r.GetByFlightReference(ctx, flightRef); err != nil {
		return nil, err
	}
	return nil, domain.ErrInsufficientSeats
}

var _ FlightRepository = (*MongoFlightRepository)(nil)
