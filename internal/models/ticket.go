package models

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Ticket is proof of purchase for one or more units of a single ticket
// type. TicketType holds the line item's name as it read at purchase
// time; renaming the type on the event does not rewrite old tickets.
type Ticket struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Event         primitive.ObjectID `bson:"event" json:"event"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	TicketType    string             `bson:"ticket_type" json:"ticket_type"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	UnitPrice     float64            `bson:"unit_price" json:"unit_price"`
	TotalAmount   float64            `bson:"total_amount" json:"total_amount"`
	PaymentID     string             `bson:"payment_id" json:"payment_id"`
	PaymentStatus PaymentStatus      `bson:"payment_status" json:"payment_status"`
	TicketNumber  string             `bson:"ticket_number" json:"ticket_number"`
	QRCode        string             `bson:"qr_code,omitempty" json:"qr_code,omitempty"`
	IsCheckedIn   bool               `bson:"is_checked_in" json:"is_checked_in"`
	PurchasedAt   time.Time          `bson:"purchased_at" json:"purchased_at"`
}

// NewTicketNumber allocates a human-readable ticket number. Uniqueness is
// practical rather than guaranteed (millisecond timestamp plus a random
// suffix); the unique index on the collection is the backstop.
func NewTicketNumber() string {
	var b [2]byte
	_, _ = rand.Read(b[:])
	suffix := binary.BigEndian.Uint16(b[:]) % 10000
	return fmt.Sprintf("TKT-%d-%04d", time.Now().UnixMilli(), suffix)
}

// TicketEventSummary is the denormalized event slice attached to ticket
// listings so the UI can render a card without a second round trip.
type TicketEventSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Location  string             `json:"location"`
	StartDate time.Time          `json:"start_date"`
	Image     string             `json:"image,omitempty"`
}

type TicketWithEvent struct {
	Ticket       `bson:",inline"`
	EventSummary *TicketEventSummary `bson:"-" json:"event_summary,omitempty"`
}
