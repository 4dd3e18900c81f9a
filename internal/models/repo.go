package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Validate = validator.New()

const (
	UsersColName   = "users"
	EventsColName  = "events"
	TicketsColName = "tickets"
)

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) *mongo.Collection {
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName)
}

// EnsureIndexes creates the unique indexes the repos rely on: one per
// user email, one per ticket number, and a payment-id lookup used by the
// issuance idempotency check.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	users := mdb.GetCollection(UsersColName)
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.email index: %v", err)
	}

	tickets := mdb.GetCollection(TicketsColName)
	_, err = tickets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticket_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "payment_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "purchased_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create tickets indexes: %v", err)
	}

	return nil
}
