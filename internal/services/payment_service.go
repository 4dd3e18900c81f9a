package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/joshua-takyi/eventgate/internal/models"
)

// OrderAPI is the slice of the Razorpay client the service needs;
// *resources.Order satisfies it and tests substitute a fake.
type OrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type PaymentService struct {
	orders        OrderAPI
	keyID         string
	keySecret     string
	webhookSecret string
	eventRepo     models.EventRepo
	tickets       *TicketService
	logger        *slog.Logger
}

func NewPaymentService(
	client *razorpay.Client,
	keyID, keySecret, webhookSecret string,
	eventRepo models.EventRepo,
	tickets *TicketService,
	logger *slog.Logger,
) *PaymentService {
	var orders OrderAPI
	if client != nil {
		orders = client.Order
	}
	return &PaymentService{
		orders:        orders,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		eventRepo:     eventRepo,
		tickets:       tickets,
		logger:        logger,
	}
}

// OrderResponse is what the checkout page needs to open the gateway
// widget.
type OrderResponse struct {
	OrderID  string  `json:"order_id"`
	Amount   int64   `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key"`
	Total    float64 `json:"total"`
}

// CreateOrder opens a gateway order for a purchase. The purchase details
// ride along as order notes so the confirmation path (callback or
// webhook) can rebuild the issuance request without trusting the client.
func (ps *PaymentService) CreateOrder(ctx context.Context, eventID, ticketTypeID, userID primitive.ObjectID, quantity int) (*OrderResponse, error) {
	if quantity < 1 || eventID.IsZero() || ticketTypeID.IsZero() {
		return nil, ErrInvalidRequest
	}

	event, err := ps.eventRepo.GetEventByID(ctx, eventID)
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
	if ticketType.Available < quantity {
		return nil, ErrInsufficientInventory
	}

	total := ticketType.Price * float64(quantity)
	// Gateway amounts are integer paise.
	amount := int64(math.Round(total * 100))

	order, err := ps.orders.Create(map[string]interface{}{
		"amount":   amount,
		"currency": "INR",
		"receipt":  fmt.Sprintf("receipt_%s_%d", eventID.Hex(), time.Now().UnixMilli()),
		"notes": map[string]interface{}{
			"event_id":       eventID.Hex(),
			"ticket_type_id": ticketTypeID.Hex(),
			"quantity":       strconv.Itoa(quantity),
			"user_id":        userID.Hex(),
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %v", err)
	}

	orderID, _ := order["id"].(string)
	return &OrderResponse{
		OrderID:  orderID,
		Amount:   amount,
		Currency: "INR",
		KeyID:    ps.keyID,
		Total:    total,
	}, nil
}

// VerifyPayment is the synchronous confirmation path: the checkout page
// posts back the gateway's order id, payment id, and signature. A bad
// signature is rejected outright; a good one leads into the shared
// issuance workflow using the order's own notes.
func (ps *PaymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*models.Ticket, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, ErrInvalidRequest
	}

	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(params, signature, ps.keySecret) {
		return nil, fmt.Errorf("%w: payment signature mismatch", ErrInvalidRequest)
	}

	order, err := ps.orders.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment order: %v", err)
	}
	notes, _ := order["notes"].(map[string]interface{})

	req, err := issueRequestFromNotes(notes, paymentID)
	if err != nil {
		return nil, err
	}
	return ps.tickets.IssueTicket(ctx, req)
}

// webhookEvent mirrors the slice of the gateway's webhook body we care
// about.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID    string                 `json:"id"`
				Notes map[string]interface{} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook is the asynchronous confirmation path. Only
// payment.captured triggers issuance; everything else is acknowledged
// and dropped. Duplicate deliveries are absorbed by the issuance
// idempotency check on the payment id.
func (ps *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !utils.VerifyWebhookSignature(string(body), signature, ps.webhookSecret) {
		return fmt.Errorf("%w: webhook signature mismatch", ErrInvalidRequest)
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("%w: malformed webhook body", ErrInvalidRequest)
	}

	if evt.Event != "payment.captured" {
		ps.logger.Debug("ignoring webhook event", "event", evt.Event)
		return nil
	}

	req, err := issueRequestFromNotes(evt.Payload.Payment.Entity.Notes, evt.Payload.Payment.Entity.ID)
	if err != nil {
		return err
	}

	if _, err := ps.tickets.IssueTicket(ctx, req); err != nil {
		return err
	}
	return nil
}

func issueRequestFromNotes(notes map[string]interface{}, paymentID string) (IssueRequest, error) {
	eventID, err := objectIDNote(notes, "event_id")
	if err != nil {
		return IssueRequest{}, err
	}
	ticketTypeID, err := objectIDNote(notes, "ticket_type_id")
	if err != nil {
		return IssueRequest{}, err
	}
	userID, err := objectIDNote(notes, "user_id")
	if err != nil {
		return IssueRequest{}, err
	}

	quantity := 0
	switch v := notes["quantity"].(type) {
	case string:
		quantity, _ = strconv.Atoi(v)
	case float64:
		quantity = int(v)
	}
	if quantity < 1 {
		return IssueRequest{}, fmt.Errorf("%w: order notes carry no quantity", ErrInvalidRequest)
	}

	return IssueRequest{
		EventID:      eventID,
		TicketTypeID: ticketTypeID,
		UserID:       userID,
		Quantity:     quantity,
		PaymentRef:   paymentID,
	}, nil
}

func objectIDNote(notes map[string]interface{}, key string) (primitive.ObjectID, error) {
	raw, _ := notes[key].(string)
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: order notes carry no %s", ErrInvalidRequest, key)
	}
	return oid, nil
}
