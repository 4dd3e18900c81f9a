package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/mailer"
	"github.com/joshua-takyi/eventgate/internal/models"
)

// statusLinkMaxAge bounds how long a signed public-status link stays
// usable, independent of the event's own dates.
const statusLinkMaxAge = 30 * 24 * time.Hour

type TicketStatus string

const (
	TicketValid   TicketStatus = "valid"
	TicketUsed    TicketStatus = "used"
	TicketExpired TicketStatus = "expired"
)

type TicketService struct {
	eventRepo   models.EventRepo
	ticketRepo  models.TicketRepo
	userRepo    models.UserRepo
	signer      *helpers.Signer
	mail        mailer.Mailer
	logger      *slog.Logger
	frontendURL string
	now         func() time.Time
}

func NewTicketService(
	eventRepo models.EventRepo,
	ticketRepo models.TicketRepo,
	userRepo models.UserRepo,
	signer *helpers.Signer,
	mail mailer.Mailer,
	logger *slog.Logger,
	frontendURL string,
) *TicketService {
	return &TicketService{
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		signer:      signer,
		mail:        mail,
		logger:      logger,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// IssueRequest is one purchase against one ticket type. PaymentRef is
// the gateway's payment id, or the FREE-* marker from the free flow.
type IssueRequest struct {
	EventID      primitive.ObjectID
	UserID       primitive.ObjectID
	TicketTypeID primitive.ObjectID
	Quantity     int
	PaymentRef   string
}

// IssueTicket is the shared issuance workflow behind both the payment
// callback/webhook path and the free-booking path: validate, take
// inventory, persist the ticket with its signed QR, notify.
//
// Effect order: the inventory decrement lands first (a conditional
// update, so racing purchases cannot oversell), then the ticket insert;
// if the insert fails the decrement is handed back. Email failure never
// rolls anything back.
func (ts *TicketService) IssueTicket(ctx context.Context, req IssueRequest) (*models.Ticket, error) {
	if req.Quantity < 1 || req.EventID.IsZero() || req.TicketTypeID.IsZero() || req.UserID.IsZero() {
		return nil, ErrInvalidRequest
	}

	// Idempotency: a webhook retry carries the same payment reference and
	// must get the same ticket back, never a second one.
	if req.PaymentRef != "" {
		existing, err := ts.ticketRepo.GetTicketByPaymentID(ctx, req.PaymentRef)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, models.ErrNoDocument) {
			return nil, err
		}
	}

	event, err := ts.eventRepo.GetEventByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	ticketType := event.TicketTypeByID(req.TicketTypeID)
	if ticketType == nil {
		return nil, ErrTicketTypeNotFound
	}

	if ticketType.Available < req.Quantity {
		return nil, ErrInsufficientInventory
	}

	user, err := ts.userRepo.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// The pre-read above is the fail-fast check; this conditional update
	// is the authoritative one.
	taken, err := ts.eventRepo.DecrementAvailability(ctx, req.EventID, req.TicketTypeID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !taken {
		return nil, ErrInsufficientInventory
	}

	ticket := &models.Ticket{
		ID:            primitive.NewObjectID(),
		Event:         event.ID,
		User:          user.ID,
		TicketType:    ticketType.Name,
		Quantity:      req.Quantity,
		UnitPrice:     ticketType.Price,
		TotalAmount:   ticketType.Price * float64(req.Quantity),
		PaymentID:     req.PaymentRef,
		PaymentStatus: models.PaymentCompleted,
		TicketNumber:  models.NewTicketNumber(),
		PurchasedAt:   ts.now(),
	}

	payload, err := ts.signer.TicketPayload(ticket.ID.Hex(), event.ID.Hex(), ticket.TicketNumber, user.ID.Hex())
	if err != nil {
		ts.compensate(ctx, req)
		return nil, err
	}
	ticket.QRCode, err = helpers.EncodeQRDataURL(payload)
	if err != nil {
		ts.compensate(ctx, req)
		return nil, err
	}

	if _, err := ts.ticketRepo.CreateTicket(ctx, ticket); err != nil {
		ts.compensate(ctx, req)
		return nil, err
	}

	// Issuance already succeeded from the buyer's perspective; a mail
	// failure is reported, not propagated.
	if ts.mail != nil {
		if err := ts.mail.SendTicketEmail(user, ticket, event, ts.StatusURL(ticket)); err != nil {
			ts.logger.Warn("ticket email failed",
				"ticket_number", ticket.TicketNumber,
				"to", user.Email,
				"error", err,
			)
		}
	}

	return ticket, nil
}

func (ts *TicketService) compensate(ctx context.Context, req IssueRequest) {
	if err := ts.eventRepo.RestoreAvailability(ctx, req.EventID, req.TicketTypeID, req.Quantity); err != nil {
		ts.logger.Error("failed to restore availability after issuance failure",
			"event_id", req.EventID.Hex(),
			"ticket_type_id", req.TicketTypeID.Hex(),
			"quantity", req.Quantity,
			"error", err,
		)
	}
}

// IssueFreeTicket is the no-gateway variant: only zero-priced line items
// qualify, and the payment reference is synthesized so the idempotency
// lookup keeps one shape.
func (ts *TicketService) IssueFreeTicket(ctx context.Context, eventID, ticketTypeID, userID primitive.ObjectID, quantity int) (*models.Ticket, error) {
	if quantity < 1 || eventID.IsZero() || ticketTypeID.IsZero() {
		return nil, ErrInvalidRequest
	}

	event, err := ts.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	ticketType := event.TicketTypeByID(ticketTypeID)
	if ticketType == nil {
		return nil, ErrTicketTypeNotFound
	}
	if ticketType.Price > 0 {
		return nil, fmt.Errorf("%w: ticket type is not free", ErrInvalidRequest)
	}

	return ts.IssueTicket(ctx, IssueRequest{
		EventID:      eventID,
		UserID:       userID,
		TicketTypeID: ticketTypeID,
		Quantity:     quantity,
		PaymentRef:   "FREE-" + uuid.NewString(),
	})
}

// VerifyAndCheckIn is the staff door scan: authorize, verify the QR
// against the ticket's identity, flip the check-in flag exactly once.
// It deliberately does not reject past-dated events; only the public
// status endpoint reports those as expired.
func (ts *TicketService) VerifyAndCheckIn(ctx context.Context, ticketID primitive.ObjectID, scannedPayload string, requester *helpers.AuthClaims) (*models.Ticket, error) {
	ticket, err := ts.ticketRepo.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	event, err := ts.eventRepo.GetEventByID(ctx, ticket.Event)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if !requester.IsAdmin() && !event.IsOrganizer(requester.ObjectID()) {
		return nil, ErrForbidden
	}

	if ticket.IsCheckedIn {
		return nil, ErrAlreadyCheckedIn
	}

	if !ts.signer.VerifyTicketPayload(scannedPayload, ticket.ID.Hex(), ticket.Event.Hex(), ticket.TicketNumber, ticket.User.Hex()) {
		return nil, ErrInvalidCode
	}

	checked, err := ts.ticketRepo.MarkCheckedIn(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if !checked {
		// Lost a race with another scanner between the read and the write.
		return nil, ErrAlreadyCheckedIn
	}

	ticket.IsCheckedIn = true
	return ticket, nil
}

// PublicStatus answers "what is this ticket" for an unauthenticated,
// signed, time-scoped link. It never mutates check-in state. Expired
// here means the event has already started; a link older than 30 days
// is rejected outright, before the signature is even looked at.
func (ts *TicketService) PublicStatus(ctx context.Context, ticketID primitive.ObjectID, signature string, issuedAt int64) (TicketStatus, *models.Ticket, error) {
	now := ts.now()
	linkAge := now.Sub(time.Unix(issuedAt, 0))
	if linkAge > statusLinkMaxAge || issuedAt <= 0 {
		return "", nil, ErrExpiredLink
	}

	ticket, err := ts.ticketRepo.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return "", nil, ErrTicketNotFound
		}
		return "", nil, err
	}

	if !ts.signer.VerifyLink(ticket.ID.Hex(), ticket.Event.Hex(), issuedAt, signature) {
		return "", nil, ErrInvalidCode
	}

	if ticket.IsCheckedIn {
		return TicketUsed, ticket, nil
	}

	event, err := ts.eventRepo.GetEventByID(ctx, ticket.Event)
	if err == nil && event.HasStarted(now) {
		return TicketExpired, ticket, nil
	}

	return TicketValid, ticket, nil
}

// StatusURL builds the signed public link included in the confirmation
// email.
func (ts *TicketService) StatusURL(ticket *models.Ticket) string {
	if ts.frontendURL == "" {
		return ""
	}
	issuedAt := ts.now().Unix()
	sig := ts.signer.SignLink(ticket.ID.Hex(), ticket.Event.Hex(), issuedAt)
	return fmt.Sprintf("%s/tickets/%s/status?ts=%d&sig=%s", ts.frontendURL, ticket.ID.Hex(), issuedAt, sig)
}

func (ts *TicketService) GetTicket(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	ticket, err := ts.ticketRepo.GetTicketByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// ListUserTickets returns a user's tickets with a denormalized event
// summary per ticket, enough for the "my tickets" screen.
func (ts *TicketService) ListUserTickets(ctx context.Context, userID primitive.ObjectID) ([]*models.TicketWithEvent, error) {
	tickets, err := ts.ticketRepo.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make(map[primitive.ObjectID]*models.TicketEventSummary)
	out := make([]*models.TicketWithEvent, 0, len(tickets))
	for _, t := range tickets {
		summary, ok := summaries[t.Event]
		if !ok {
			if event, eventErr := ts.eventRepo.GetEventByID(ctx, t.Event); eventErr == nil {
				summary = &models.TicketEventSummary{
					ID:        event.ID,
					Title:     event.Title,
					Location:  event.Location,
					StartDate: event.StartDate,
					Image:     event.Image,
				}
			}
			// Deleted events leave a nil summary; tickets survive their
			// event on purpose.
			summaries[t.Event] = summary
		}
		out = append(out, &models.TicketWithEvent{Ticket: *t, EventSummary: summary})
	}

	return out, nil
}

func (ts *TicketService) ListEventTickets(ctx context.Context, eventID primitive.ObjectID, requester *helpers.AuthClaims) ([]*models.Ticket, error) {
	event, err := ts.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if !requester.IsAdmin() && !event.IsOrganizer(requester.ObjectID()) {
		return nil, ErrForbidden
	}

	return ts.ticketRepo.ListTicketsByEvent(ctx, eventID)
}
