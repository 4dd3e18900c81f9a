package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	razorpay "github.com/razorpay/razorpay-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joshua-takyi/eventgate/internal/config"
	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/mailer"
	"github.com/joshua-takyi/eventgate/internal/models"
	"github.com/joshua-takyi/eventgate/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Logger     *slog.Logger
	Config     *config.Config
	Cloudinary *cloudinary.Cloudinary

	MongoDBClient *mongo.Client

	UserService    *services.UserService
	EventService   *services.EventService
	TicketService  *services.TicketService
	PaymentService *services.PaymentService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	cld *cloudinary.Cloudinary,
	mongoDBClient *mongo.Client,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBName)

	// Email is optional in local setups. With no SMTP user configured
	// tickets are issued without a confirmation message.
	var mail mailer.Mailer
	if cfg.EmailUser != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.EmailUser,
			Password:    cfg.EmailPass,
			FromAddress: cfg.EmailFrom,
		})
	}

	var rzp *razorpay.Client
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		rzp = razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}

	signer := helpers.NewSigner(cfg.JWTSecret)

	userService := services.NewUserService(repo)
	eventService := services.NewEventService(repo, cld)
	ticketService := services.NewTicketService(repo, repo, repo, signer, mail, logger, cfg.FrontendURL)
	paymentService := services.NewPaymentService(
		rzp,
		cfg.RazorpayKeyID,
		cfg.RazorpayKeySecret,
		cfg.RazorpayWebhookSecret,
		repo,
		ticketService,
		logger,
	)

	return &Container{
		Logger:         logger,
		Config:         cfg,
		Cloudinary:     cld,
		MongoDBClient:  mongoDBClient,
		UserService:    userService,
		EventService:   eventService,
		TicketService:  ticketService,
		PaymentService: paymentService,
	}
}
