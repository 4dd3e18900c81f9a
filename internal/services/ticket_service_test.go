package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/mailer"
	"github.com/joshua-takyi/eventgate/internal/models"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type ticketFixture struct {
	eventID      primitive.ObjectID
	ticketTypeID primitive.ObjectID
	organizerID  primitive.ObjectID
	userID       primitive.ObjectID
	event        *models.Event
	user         *models.User
}

func newTicketFixture(price float64, available int) *ticketFixture {
	f := &ticketFixture{
		eventID:      primitive.NewObjectID(),
		ticketTypeID: primitive.NewObjectID(),
		organizerID:  primitive.NewObjectID(),
		userID:       primitive.NewObjectID(),
	}
	f.event = &models.Event{
		ID:        f.eventID,
		Title:     "Go Conference Accra",
		Location:  "Accra International Conference Centre",
		StartDate: time.Now().Add(48 * time.Hour),
		EndDate:   time.Now().Add(72 * time.Hour),
		Organizer: f.organizerID,
		Status:    models.EventPublished,
		TicketTypes: []models.TicketType{
			{
				ID:        f.ticketTypeID,
				Name:      "General Admission",
				Price:     price,
				Quantity:  available,
				Available: available,
			},
		},
	}
	f.user = &models.User{
		ID:    f.userID,
		Name:  "Ama Mensah",
		Email: "ama@example.com",
		Role:  models.RoleUser,
	}
	return f
}

func (f *ticketFixture) eventRepo() *mockEventRepo {
	return &mockEventRepo{
		getByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
			if id != f.eventID {
				return nil, models.ErrNoDocument
			}
			return f.event, nil
		},
		decrementFn: func(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) (bool, error) {
			tt := f.event.TicketTypeByID(ticketTypeID)
			if tt == nil || tt.Available < qty {
				return false, nil
			}
			tt.Available -= qty
			return true, nil
		},
		restoreFn: func(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) error {
			if tt := f.event.TicketTypeByID(ticketTypeID); tt != nil {
				tt.Available += qty
			}
			return nil
		},
	}
}

func (f *ticketFixture) userRepo() *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
			if id != f.userID {
				return nil, models.ErrNoDocument
			}
			return f.user, nil
		},
	}
}

func passthroughTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		createFn: func(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
			return ticket, nil
		},
		getByPaymentFn: func(ctx context.Context, paymentID string) (*models.Ticket, error) {
			return nil, models.ErrNoDocument
		},
	}
}

func newTestTicketService(eventRepo models.EventRepo, ticketRepo models.TicketRepo, userRepo models.UserRepo, mail *mockMailer) *TicketService {
	// A typed nil pointer must not become a non-nil mailer interface.
	var m mailer.Mailer
	if mail != nil {
		m = mail
	}
	return NewTicketService(eventRepo, ticketRepo, userRepo, helpers.NewSigner("test-secret"), m, discardLogger, "http://localhost:3000")
}

func TestIssueTicket_DecrementsInventoryAndComputesTotal(t *testing.T) {
	f := newTicketFixture(50, 100)
	mail := &mockMailer{}
	svc := newTestTicketService(f.eventRepo(), passthroughTicketRepo(), f.userRepo(), mail)

	ticket, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     3,
		PaymentRef:   "pay_001",
	})

	require.NoError(t, err)
	assert.Equal(t, 97, f.event.TicketTypes[0].Available)
	assert.Equal(t, 3, ticket.Quantity)
	assert.Equal(t, 50.0, ticket.UnitPrice)
	assert.Equal(t, 150.0, ticket.TotalAmount)
	assert.Equal(t, models.PaymentCompleted, ticket.PaymentStatus)
	assert.True(t, strings.HasPrefix(ticket.TicketNumber, "TKT-"))
	assert.True(t, strings.HasPrefix(ticket.QRCode, "data:image/png;base64,"))
	assert.Equal(t, 1, mail.sent)
}

func TestIssueTicket_InsufficientInventory(t *testing.T) {
	f := newTicketFixture(50, 2)
	svc := newTestTicketService(f.eventRepo(), passthroughTicketRepo(), f.userRepo(), nil)

	_, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     5,
		PaymentRef:   "pay_002",
	})

	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Equal(t, 2, f.event.TicketTypes[0].Available)
}

func TestIssueTicket_LosesDecrementRace(t *testing.T) {
	f := newTicketFixture(50, 10)
	events := f.eventRepo()
	// The pre-read sees inventory, but another purchase lands first.
	events.decrementFn = func(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) (bool, error) {
		return false, nil
	}
	svc := newTestTicketService(events, passthroughTicketRepo(), f.userRepo(), nil)

	_, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     1,
		PaymentRef:   "pay_003",
	})

	assert.ErrorIs(t, err, ErrInsufficientInventory)
}

func TestIssueTicket_IdempotentOnPaymentRef(t *testing.T) {
	f := newTicketFixture(50, 100)
	existing := &models.Ticket{ID: primitive.NewObjectID(), PaymentID: "pay_dup"}
	tickets := passthroughTicketRepo()
	tickets.getByPaymentFn = func(ctx context.Context, paymentID string) (*models.Ticket, error) {
		if paymentID == "pay_dup" {
			return existing, nil
		}
		return nil, models.ErrNoDocument
	}
	svc := newTestTicketService(f.eventRepo(), tickets, f.userRepo(), nil)

	ticket, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     2,
		PaymentRef:   "pay_dup",
	})

	require.NoError(t, err)
	assert.Same(t, existing, ticket)
	// A replayed webhook must not touch inventory.
	assert.Equal(t, 100, f.event.TicketTypes[0].Available)
}

func TestIssueTicket_RestoresInventoryWhenInsertFails(t *testing.T) {
	f := newTicketFixture(50, 10)
	tickets := passthroughTicketRepo()
	tickets.createFn = func(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
		return nil, errors.New("write conflict")
	}
	svc := newTestTicketService(f.eventRepo(), tickets, f.userRepo(), nil)

	_, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     4,
		PaymentRef:   "pay_004",
	})

	assert.Error(t, err)
	assert.Equal(t, 10, f.event.TicketTypes[0].Available)
}

func TestIssueTicket_EmailFailureDoesNotFailIssuance(t *testing.T) {
	f := newTicketFixture(50, 10)
	mail := &mockMailer{
		sendFn: func(user *models.User, ticket *models.Ticket, event *models.Event, statusURL string) error {
			return errors.New("smtp unreachable")
		},
	}
	svc := newTestTicketService(f.eventRepo(), passthroughTicketRepo(), f.userRepo(), mail)

	ticket, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     1,
		PaymentRef:   "pay_005",
	})

	require.NoError(t, err)
	assert.NotNil(t, ticket)
	assert.Equal(t, 9, f.event.TicketTypes[0].Available)
}

func TestIssueTicket_SellOutWalkthrough(t *testing.T) {
	f := newTicketFixture(25, 100)
	svc := newTestTicketService(f.eventRepo(), passthroughTicketRepo(), f.userRepo(), nil)
	ctx := context.Background()

	_, err := svc.IssueTicket(ctx, IssueRequest{
		EventID: f.eventID, UserID: f.userID, TicketTypeID: f.ticketTypeID,
		Quantity: 3, PaymentRef: "pay_a",
	})
	require.NoError(t, err)
	assert.Equal(t, 97, f.event.TicketTypes[0].Available)

	_, err = svc.IssueTicket(ctx, IssueRequest{
		EventID: f.eventID, UserID: f.userID, TicketTypeID: f.ticketTypeID,
		Quantity: 97, PaymentRef: "pay_b",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.event.TicketTypes[0].Available)

	_, err = svc.IssueTicket(ctx, IssueRequest{
		EventID: f.eventID, UserID: f.userID, TicketTypeID: f.ticketTypeID,
		Quantity: 1, PaymentRef: "pay_c",
	})
	assert.ErrorIs(t, err, ErrInsufficientInventory)
}

func TestIssueFreeTicket_RejectsPricedType(t *testing.T) {
	f := newTicketFixture(500, 10)
	svc := newTestTicketService(f.eventRepo(), passthroughTicketRepo(), f.userRepo(), nil)

	_, err := svc.IssueFreeTicket(context.Background(), f.eventID, f.ticketTypeID, f.userID, 1)

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 10, f.event.TicketTypes[0].Available)
}

func TestIssueFreeTicket_SynthesizesPaymentRef(t *testing.T) {
	f := newTicketFixture(0, 10)
	svc := newTestTicketService(f.eventRepo(), passthroughTicketRepo(), f.userRepo(), nil)

	ticket, err := svc.IssueFreeTicket(context.Background(), f.eventID, f.ticketTypeID, f.userID, 2)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket.PaymentID, "FREE-"))
	assert.Equal(t, 0.0, ticket.TotalAmount)
	assert.Equal(t, 8, f.event.TicketTypes[0].Available)
}

// issuedTicket runs a full issuance and returns the stored ticket so
// check-in tests work against a real signed QR payload.
func issuedTicket(t *testing.T, f *ticketFixture, svc *TicketService) *models.Ticket {
	t.Helper()
	ticket, err := svc.IssueTicket(context.Background(), IssueRequest{
		EventID:      f.eventID,
		UserID:       f.userID,
		TicketTypeID: f.ticketTypeID,
		Quantity:     1,
		PaymentRef:   "pay_checkin",
	})
	require.NoError(t, err)
	return ticket
}

func checkInTicketRepo(ticket **models.Ticket) *mockTicketRepo {
	repo := passthroughTicketRepo()
	repo.createFn = func(ctx context.Context, tk *models.Ticket) (*models.Ticket, error) {
		*ticket = tk
		return tk, nil
	}
	repo.getByIDFn = func(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
		if *ticket == nil || (*ticket).ID != id {
			return nil, models.ErrNoDocument
		}
		return *ticket, nil
	}
	repo.markCheckedInFn = func(ctx context.Context, id primitive.ObjectID) (bool, error) {
		if (*ticket).IsCheckedIn {
			return false, nil
		}
		(*ticket).IsCheckedIn = true
		return true, nil
	}
	return repo
}

// qrPayload rebuilds the string a scanner would read out of the QR
// image, using the same signing key as the service under test.
func qrPayload(t *testing.T, ticket *models.Ticket) string {
	t.Helper()
	signer := helpers.NewSigner("test-secret")
	content, err := signer.TicketPayload(ticket.ID.Hex(), ticket.Event.Hex(), ticket.TicketNumber, ticket.User.Hex())
	require.NoError(t, err)
	return content
}

func TestVerifyAndCheckIn_OrganizerSucceedsOnce(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	organizer := &helpers.AuthClaims{UserID: f.organizerID.Hex(), Role: models.RoleUser}
	scanned := qrPayload(t, ticket)

	checked, err := svc.VerifyAndCheckIn(context.Background(), ticket.ID, scanned, organizer)
	require.NoError(t, err)
	assert.True(t, checked.IsCheckedIn)

	_, err = svc.VerifyAndCheckIn(context.Background(), ticket.ID, scanned, organizer)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestVerifyAndCheckIn_TamperedPayloadRejected(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	scanned := qrPayload(t, ticket)
	// Flip one hex character of the embedded hash.
	i := strings.LastIndexAny(scanned, "0123456789abcdef")
	flipped := "0"
	if scanned[i] == '0' {
		flipped = "1"
	}
	tampered := scanned[:i] + flipped + scanned[i+1:]

	organizer := &helpers.AuthClaims{UserID: f.organizerID.Hex(), Role: models.RoleUser}
	_, err := svc.VerifyAndCheckIn(context.Background(), ticket.ID, tampered, organizer)

	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.False(t, stored.IsCheckedIn)
}

func TestVerifyAndCheckIn_RequiresOrganizerOrAdmin(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)
	scanned := qrPayload(t, ticket)

	stranger := &helpers.AuthClaims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleUser}
	_, err := svc.VerifyAndCheckIn(context.Background(), ticket.ID, scanned, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := &helpers.AuthClaims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	checked, err := svc.VerifyAndCheckIn(context.Background(), ticket.ID, scanned, admin)
	require.NoError(t, err)
	assert.True(t, checked.IsCheckedIn)
}

func TestVerifyAndCheckIn_AllowsPastEvents(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	// Doors stay open for late scans even after the event begins.
	f.event.StartDate = time.Now().Add(-2 * time.Hour)

	organizer := &helpers.AuthClaims{UserID: f.organizerID.Hex(), Role: models.RoleUser}
	checked, err := svc.VerifyAndCheckIn(context.Background(), ticket.ID, qrPayload(t, ticket), organizer)

	require.NoError(t, err)
	assert.True(t, checked.IsCheckedIn)
}

func TestVerifyAndCheckIn_MarkRaceReportsAlreadyUsed(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	repo.markCheckedInFn = func(ctx context.Context, id primitive.ObjectID) (bool, error) {
		// Another scanner won between our read and write.
		return false, nil
	}
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	organizer := &helpers.AuthClaims{UserID: f.organizerID.Hex(), Role: models.RoleUser}
	_, err := svc.VerifyAndCheckIn(context.Background(), ticket.ID, qrPayload(t, ticket), organizer)

	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestPublicStatus_ReportsLifecycle(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	signer := helpers.NewSigner("test-secret")
	issuedAt := time.Now().Unix()
	sig := signer.SignLink(ticket.ID.Hex(), ticket.Event.Hex(), issuedAt)

	status, got, err := svc.PublicStatus(context.Background(), ticket.ID, sig, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, TicketValid, status)
	assert.Equal(t, ticket.TicketNumber, got.TicketNumber)

	stored.IsCheckedIn = true
	status, _, err = svc.PublicStatus(context.Background(), ticket.ID, sig, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, TicketUsed, status)

	stored.IsCheckedIn = false
	f.event.StartDate = time.Now().Add(-time.Hour)
	status, _, err = svc.PublicStatus(context.Background(), ticket.ID, sig, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, TicketExpired, status)
}

func TestPublicStatus_RejectsStaleLinkBeforeSignature(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	repo.getByIDFn = func(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
		t.Fatal("stale links must be rejected before any lookup")
		return nil, nil
	}
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)

	issuedAt := time.Now().Add(-31 * 24 * time.Hour).Unix()
	_, _, err := svc.PublicStatus(context.Background(), primitive.NewObjectID(), "whatever", issuedAt)

	assert.ErrorIs(t, err, ErrExpiredLink)
}

func TestPublicStatus_RejectsBadSignature(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	issuedAt := time.Now().Unix()
	_, _, err := svc.PublicStatus(context.Background(), ticket.ID, "deadbeef", issuedAt)

	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestListUserTickets_AttachesEventSummaries(t *testing.T) {
	f := newTicketFixture(50, 10)
	deletedEventID := primitive.NewObjectID()
	repo := passthroughTicketRepo()
	repo.listByUserFn = func(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error) {
		return []*models.Ticket{
			{ID: primitive.NewObjectID(), Event: f.eventID, User: userID},
			{ID: primitive.NewObjectID(), Event: deletedEventID, User: userID},
		}, nil
	}
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)

	tickets, err := svc.ListUserTickets(context.Background(), f.userID)

	require.NoError(t, err)
	require.Len(t, tickets, 2)
	require.NotNil(t, tickets[0].EventSummary)
	assert.Equal(t, f.event.Title, tickets[0].EventSummary.Title)
	// Tickets outlive their event; the summary is simply absent.
	assert.Nil(t, tickets[1].EventSummary)
}

func TestListEventTickets_OrganizerOnly(t *testing.T) {
	f := newTicketFixture(50, 10)
	repo := passthroughTicketRepo()
	repo.listByEventFn = func(ctx context.Context, eventID primitive.ObjectID) ([]*models.Ticket, error) {
		return []*models.Ticket{{ID: primitive.NewObjectID(), Event: eventID}}, nil
	}
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)

	stranger := &helpers.AuthClaims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleUser}
	_, err := svc.ListEventTickets(context.Background(), f.eventID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	organizer := &helpers.AuthClaims{UserID: f.organizerID.Hex(), Role: models.RoleUser}
	tickets, err := svc.ListEventTickets(context.Background(), f.eventID, organizer)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestStatusURL_VerifiesRoundTrip(t *testing.T) {
	f := newTicketFixture(50, 10)
	var stored *models.Ticket
	repo := checkInTicketRepo(&stored)
	svc := newTestTicketService(f.eventRepo(), repo, f.userRepo(), nil)
	ticket := issuedTicket(t, f, svc)

	url := svc.StatusURL(ticket)
	assert.Contains(t, url, "http://localhost:3000/tickets/"+ticket.ID.Hex()+"/status?ts=")
	assert.Contains(t, url, "&sig=")
}
