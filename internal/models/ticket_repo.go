package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TicketRepo interface {
	CreateTicket(ctx context.Context, ticket *Ticket) (*Ticket, error)
	GetTicketByID(ctx context.Context, id primitive.ObjectID) (*Ticket, error)
	// GetTicketByPaymentID backs the issuance idempotency check: the same
	// payment reference must never yield a second ticket.
	GetTicketByPaymentID(ctx context.Context, paymentID string) (*Ticket, error)
	ListTicketsByUser(ctx context.Context, userID primitive.ObjectID) ([]*Ticket, error)
	ListTicketsByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Ticket, error)
	MarkCheckedIn(ctx context.Context, id primitive.ObjectID) (bool, error)
}

func (mdb *MongodbRepo) CreateTicket(ctx context.Context, ticket *Ticket) (*Ticket, error) {
	col := mdb.GetCollection(TicketsColName)

	res, err := col.InsertOne(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %v", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		ticket.ID = oid
	}
	return ticket, nil
}

func (mdb *MongodbRepo) GetTicketByID(ctx context.Context, id primitive.ObjectID) (*Ticket, error) {
	col := mdb.GetCollection(TicketsColName)

	var ticket Ticket
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to find ticket: %v", err)
	}

	return &ticket, nil
}

func (mdb *MongodbRepo) GetTicketByPaymentID(ctx context.Context, paymentID string) (*Ticket, error) {
	col := mdb.GetCollection(TicketsColName)

	var ticket Ticket
	err := col.FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to find ticket by payment id: %v", err)
	}

	return &ticket, nil
}

func (mdb *MongodbRepo) ListTicketsByUser(ctx context.Context, userID primitive.ObjectID) ([]*Ticket, error) {
	return mdb.findTickets(ctx, bson.M{"user": userID})
}

func (mdb *MongodbRepo) ListTicketsByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Ticket, error) {
	return mdb.findTickets(ctx, bson.M{"event": eventID})
}

func (mdb *MongodbRepo) findTickets(ctx context.Context, filter bson.M) ([]*Ticket, error) {
	col := mdb.GetCollection(TicketsColName)

	opts := options.Find().SetSort(bson.D{{Key: "purchased_at", Value: -1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tickets: %v", err)
	}
	defer cursor.Close(ctx)

	var tickets []*Ticket
	for cursor.Next(ctx) {
		var ticket Ticket
		if err := cursor.Decode(&ticket); err != nil {
			return nil, fmt.Errorf("failed to decode ticket: %v", err)
		}
		tickets = append(tickets, &ticket)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return tickets, nil
}

// MarkCheckedIn flips is_checked_in false -> true exactly once. The
// filter requires the flag to still be false, so a concurrent second
// scan loses and gets false back.
func (mdb *MongodbRepo) MarkCheckedIn(ctx context.Context, id primitive.ObjectID) (bool, error) {
	col := mdb.GetCollection(TicketsColName)

	res, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "is_checked_in": false},
		bson.M{"$set": bson.M{"is_checked_in": true}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark ticket checked in: %v", err)
	}
	return res.ModifiedCount == 1, nil
}
