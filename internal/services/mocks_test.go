package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/models"
)

// --- Mock EventRepo ---

type mockEventRepo struct {
	createFn          func(ctx context.Context, event *models.Event) (*models.Event, error)
	getByIDFn         func(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	listFn            func(ctx context.Context, query models.EventQuery, offset, limit int) ([]*models.Event, int, error)
	listByOrganizerFn func(ctx context.Context, organizer primitive.ObjectID) ([]*models.Event, error)
	updateFn          func(ctx context.Context, event *models.Event) error
	deleteFn          func(ctx context.Context, id primitive.ObjectID) error
	decrementFn       func(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) (bool, error)
	restoreFn         func(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) error
}

func (m *mockEventRepo) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	return m.createFn(ctx, event)
}
func (m *mockEventRepo) GetEventByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockEventRepo) ListEvents(ctx context.Context, query models.EventQuery, offset, limit int) ([]*models.Event, int, error) {
	return m.listFn(ctx, query, offset, limit)
}
func (m *mockEventRepo) ListEventsByOrganizer(ctx context.Context, organizer primitive.ObjectID) ([]*models.Event, error) {
	return m.listByOrganizerFn(ctx, organizer)
}
func (m *mockEventRepo) UpdateEvent(ctx context.Context, event *models.Event) error {
	return m.updateFn(ctx, event)
}
func (m *mockEventRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	return m.deleteFn(ctx, id)
}
func (m *mockEventRepo) DecrementAvailability(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) (bool, error) {
	return m.decrementFn(ctx, eventID, ticketTypeID, qty)
}
func (m *mockEventRepo) RestoreAvailability(ctx context.Context, eventID, ticketTypeID primitive.ObjectID, qty int) error {
	return m.restoreFn(ctx, eventID, ticketTypeID, qty)
}

// --- Mock TicketRepo ---

type mockTicketRepo struct {
	createFn        func(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	getByIDFn       func(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error)
	getByPaymentFn  func(ctx context.Context, paymentID string) (*models.Ticket, error)
	listByUserFn    func(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error)
	listByEventFn   func(ctx context.Context, eventID primitive.ObjectID) ([]*models.Ticket, error)
	markCheckedInFn func(ctx context.Context, id primitive.ObjectID) (bool, error)
}

func (m *mockTicketRepo) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	return m.createFn(ctx, ticket)
}
func (m *mockTicketRepo) GetTicketByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockTicketRepo) GetTicketByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error) {
	return m.getByPaymentFn(ctx, paymentID)
}
func (m *mockTicketRepo) ListTicketsByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *mockTicketRepo) ListTicketsByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*models.Ticket, error) {
	return m.listByEventFn(ctx, eventID)
}
func (m *mockTicketRepo) MarkCheckedIn(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return m.markCheckedInFn(ctx, id)
}

// --- Mock UserRepo ---

type mockUserRepo struct {
	createFn        func(ctx context.Context, user *models.User) (*models.User, error)
	getByIDFn       func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*models.User, error)
	getByGoogleIDFn func(ctx context.Context, googleID string) (*models.User, error)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	return m.createFn(ctx, user)
}
func (m *mockUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getByEmailFn(ctx, email)
}
func (m *mockUserRepo) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.getByGoogleIDFn(ctx, googleID)
}

// --- Mock Mailer ---

type mockMailer struct {
	sendFn func(user *models.User, ticket *models.Ticket, event *models.Event, statusURL string) error
	sent   int
}

func (m *mockMailer) SendTicketEmail(user *models.User, ticket *models.Ticket, event *models.Event, statusURL string) error {
	m.sent++
	if m.sendFn != nil {
		return m.sendFn(user, ticket, event, statusURL)
	}
	return nil
}
