package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
)

// TicketType is a priced inventory line item embedded in an Event. It has
// no lifecycle of its own. Available is a down-counter: it only decreases
// through ticket issuance and only increases through an administrative
// edit that moves quantity by the same delta.
type TicketType struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price" validate:"gte=0"`
	Quantity    int                `bson:"quantity" json:"quantity" validate:"gte=1"`
	Available   int                `bson:"available" json:"available"`
}

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title" validate:"required"`
	Description string             `bson:"description" json:"description" validate:"required"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Location    string             `bson:"location" json:"location" validate:"required"`
	StartDate   time.Time          `bson:"start_date" json:"start_date" validate:"required"`
	EndDate     time.Time          `bson:"end_date" json:"end_date" validate:"required"`
	Organizer   primitive.ObjectID `bson:"organizer" json:"organizer"`
	TicketTypes []TicketType       `bson:"ticket_types" json:"ticket_types" validate:"required,min=1,dive"`
	Status      EventStatus        `bson:"status" json:"status"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// TicketTypeByID returns the embedded line item with the given id.
func (e *Event) TicketTypeByID(id primitive.ObjectID) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].ID == id {
			return &e.TicketTypes[i]
		}
	}
	return nil
}

func (e *Event) IsOrganizer(userID primitive.ObjectID) bool {
	return e.Organizer == userID
}

func (e *Event) HasStarted(now time.Time) bool {
	return e.StartDate.Before(now)
}

// EventQuery captures the listing filters exposed by GET /events.
type EventQuery struct {
	Status    EventStatus
	Search    string
	StartFrom time.Time
	StartTo   time.Time
	Sort      string // dateAsc (default), dateDesc, titleAsc, titleDesc
}
