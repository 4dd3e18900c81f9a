package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/models"
)

type EventService struct {
	eventRepo models.EventRepo
	cld       *cloudinary.Cloudinary
}

func NewEventService(eventRepo models.EventRepo, cld *cloudinary.Cloudinary) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		cld:       cld,
	}
}

func (es *EventService) CreateEvent(ctx context.Context, event *models.Event, organizer primitive.ObjectID) (*models.Event, error) {
	if event.Status == "" {
		event.Status = models.EventDraft
	}
	if err := models.Validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidRequest)
	}

	now := time.Now()
	event.Organizer = organizer
	event.CreatedAt = now
	event.UpdatedAt = now

	// Every line item starts fully available and gets its own id so
	// purchases can address it directly.
	for i := range event.TicketTypes {
		event.TicketTypes[i].ID = primitive.NewObjectID()
		event.TicketTypes[i].Available = event.TicketTypes[i].Quantity
	}

	if event.Image != "" && es.cld != nil {
		url, err := helpers.UploadImage(ctx, es.cld, event.Image, helpers.EventsFolder)
		if err != nil {
			return nil, err
		}
		event.Image = url
	}

	return es.eventRepo.CreateEvent(ctx, event)
}

func (es *EventService) GetEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	event, err := es.eventRepo.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (es *EventService) ListEvents(ctx context.Context, query models.EventQuery, offset, limit int) ([]*models.Event, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid offset or limit", ErrInvalidRequest)
	}
	return es.eventRepo.ListEvents(ctx, query, offset, limit)
}

func (es *EventService) ListEventsByOrganizer(ctx context.Context, organizer primitive.ObjectID) ([]*models.Event, error) {
	if organizer == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: invalid organizer ID", ErrInvalidRequest)
	}
	return es.eventRepo.ListEventsByOrganizer(ctx, organizer)
}

// EventUpdate carries the mutable event fields; nil/zero means "leave as
// is", mirroring the partial updates the SPA sends.
type EventUpdate struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Location    string              `json:"location"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	Tags        []string            `json:"tags"`
	Status      models.EventStatus  `json:"status"`
	TicketTypes []models.TicketType `json:"ticket_types"`
}

func (es *EventService) UpdateEvent(ctx context.Context, id primitive.ObjectID, update EventUpdate) (*models.Event, error) {
	event, err := es.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != "" {
		event.Title = update.Title
	}
	if update.Description != "" {
		event.Description = update.Description
	}
	if update.Location != "" {
		event.Location = update.Location
	}
	if !update.StartDate.IsZero() {
		event.StartDate = update.StartDate
	}
	if !update.EndDate.IsZero() {
		event.EndDate = update.EndDate
	}
	if update.Tags != nil {
		event.Tags = update.Tags
	}
	if update.Status != "" {
		switch update.Status {
		case models.EventDraft, models.EventPublished, models.EventCancelled:
			event.Status = update.Status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, update.Status)
		}
	}
	if update.Image != "" {
		image := update.Image
		if es.cld != nil {
			url, uploadErr := helpers.UploadImage(ctx, es.cld, image, helpers.EventsFolder)
			if uploadErr != nil {
				return nil, uploadErr
			}
			image = url
		}
		event.Image = image
	}
	if update.TicketTypes != nil {
		event.TicketTypes = mergeTicketTypes(event.TicketTypes, update.TicketTypes)
	}

	if event.EndDate.Before(event.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidRequest)
	}

	if err := es.eventRepo.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// mergeTicketTypes applies an administrative edit without losing sold
// counts: for a known line item the quantity delta moves available by
// the same amount (floored at zero), a new line item starts fully
// available.
func mergeTicketTypes(existing, incoming []models.TicketType) []models.TicketType {
	byID := make(map[primitive.ObjectID]models.TicketType, len(existing))
	for _, tt := range existing {
		byID[tt.ID] = tt
	}

	merged := make([]models.TicketType, 0, len(incoming))
	for _, tt := range incoming {
		if old, ok := byID[tt.ID]; ok {
			diff := tt.Quantity - old.Quantity
			tt.Available = old.Available + diff
			if tt.Available < 0 {
				tt.Available = 0
			}
		} else {
			tt.ID = primitive.NewObjectID()
			tt.Available = tt.Quantity
		}
		merged = append(merged, tt)
	}
	return merged
}

func (es *EventService) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	err := es.eventRepo.DeleteEvent(ctx, id)
	if errors.Is(err, models.ErrNoDocument) {
		return ErrEventNotFound
	}
	return err
}
