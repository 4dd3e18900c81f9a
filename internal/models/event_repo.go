package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	ListEvents(ctx context.Context, query EventQuery, offset, limit int) ([]*Event, int, error)
	ListEventsByOrganizer(ctx context.Context, organizer primitive.ObjectID) ([]*Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
	// DecrementAvailability atomically takes qty units from the ticket
	// type's available counter. The filter requires available >= qty, so
	// two racing purchases of the last units cannot both succeed; a false
	// return means the inventory was gone by the time the write landed.
	DecrementAvailability(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) (bool, error)
	// RestoreAvailability gives qty units back. Used to compensate when a
	// ticket insert fails after its decrement already went through.
	RestoreAvailability(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) error
}

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	col := mdb.GetCollection(EventsColName)

	res, err := col.InsertOne(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %v", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}
	return event, nil
}

func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	col := mdb.GetCollection(EventsColName)

	var event Event
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to find event: %v", err)
	}

	return &event, nil
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, query EventQuery, offset, limit int) ([]*Event, int, error) {
	col := mdb.GetCollection(EventsColName)

	filter := bson.M{}
	if query.Status != "" {
		filter["status"] = query.Status
	}
	if query.Search != "" {
		filter["title"] = bson.M{"$regex": query.Search, "$options": "i"}
	}
	dateFilter := bson.M{}
	if !query.StartFrom.IsZero() {
		dateFilter["$gte"] = query.StartFrom
	}
	if !query.StartTo.IsZero() {
		dateFilter["$lte"] = query.StartTo
	}
	if len(dateFilter) > 0 {
		filter["start_date"] = dateFilter
	}

	sort := bson.D{{Key: "start_date", Value: 1}}
	switch query.Sort {
	case "dateDesc":
		sort = bson.D{{Key: "start_date", Value: -1}}
	case "titleAsc":
		sort = bson.D{{Key: "title", Value: 1}}
	case "titleDesc":
		sort = bson.D{{Key: "title", Value: -1}}
	}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %v", err)
	}

	opts := options.Find().SetSort(sort).SetSkip(int64(offset)).SetLimit(int64(limit))
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find events: %v", err)
	}
	defer cursor.Close(ctx)

	var events []*Event
	for cursor.Next(ctx) {
		var event Event
		if err := cursor.Decode(&event); err != nil {
			return nil, 0, fmt.Errorf("failed to decode event: %v", err)
		}
		events = append(events, &event)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %v", err)
	}

	return events, int(total), nil
}

func (mdb *MongodbRepo) ListEventsByOrganizer(ctx context.Context, organizer primitive.ObjectID) ([]*Event, error) {
	col := mdb.GetCollection(EventsColName)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{"organizer": organizer}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find organizer events: %v", err)
	}
	defer cursor.Close(ctx)

	var events []*Event
	for cursor.Next(ctx) {
		var event Event
		if err := cursor.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode event: %v", err)
		}
		events = append(events, &event)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return events, nil
}

func (mdb *MongodbRepo) UpdateEvent(ctx context.Context, event *Event) error {
	col := mdb.GetCollection(EventsColName)

	event.UpdatedAt = time.Now()
	res, err := col.ReplaceOne(ctx, bson.M{"_id": event.ID}, event)
	if err != nil {
		return fmt.Errorf("failed to update event: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	col := mdb.GetCollection(EventsColName)

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete event: %v", err)
	}
	if res.DeletedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

func (mdb *MongodbRepo) DecrementAvailability(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) (bool, error) {
	col := mdb.GetCollection(EventsColName)

	filter := bson.M{
		"_id": eventID,
		"ticket_types": bson.M{"$elemMatch": bson.M{
			"_id":       ticketTypeID,
			"available": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"ticket_types.$.available": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to decrement availability: %v", err)
	}
	return res.ModifiedCount == 1, nil
}

func (mdb *MongodbRepo) RestoreAvailability(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) error {
	col := mdb.GetCollection(EventsColName)

	filter := bson.M{"_id": eventID, "ticket_types._id": ticketTypeID}
	update := bson.M{
		"$inc": bson.M{"ticket_types.$.available": qty},
		"$set": bson.M{"updated_at": time.Now()},
	}

	_, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to restore availability: %v", err)
	}
	return nil
}
