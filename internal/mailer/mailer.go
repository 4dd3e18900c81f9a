package mailer

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/models"
)

// Mailer is what the ticket service depends on; tests swap in a fake.
type Mailer interface {
	SendTicketEmail(user *models.User, ticket *models.Ticket, event *models.Event, statusURL string) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

type SMTPMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPMailer{
		config: config,
		dialer: dialer,
	}
}

// SendTicketEmail sends the confirmation with the QR embedded inline.
// Callers treat a failure as non-fatal: the ticket already exists.
func (s *SMTPMailer) SendTicketEmail(user *models.User, ticket *models.Ticket, event *models.Event, statusURL string) error {
	png, err := helpers.DecodeQRDataURL(ticket.QRCode)
	if err != nil {
		return fmt.Errorf("ticket has no usable QR image: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", fmt.Sprintf("Your Ticket for %s", event.Title))
	m.SetBody("text/html", ticketHTML(ticket, event, statusURL))
	m.Embed("qr.png", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	}))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send ticket email: %v", err)
	}
	return nil
}

func ticketHTML(ticket *models.Ticket, event *models.Event, statusURL string) string {
	statusLine := ""
	if statusURL != "" {
		statusLine = fmt.Sprintf(`<p>You can check this ticket's status any time: <a href="%s">ticket status</a></p>`, statusURL)
	}

	return fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
          <h2>Your Ticket Details</h2>
          <p>Thank you for purchasing a ticket for %s!</p>

          <div style="border: 1px solid #ddd; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
            <h3>%s</h3>
            <p><strong>Date:</strong> %s</p>
            <p><strong>Time:</strong> %s</p>
            <p><strong>Location:</strong> %s</p>
            <p><strong>Ticket Type:</strong> %s</p>
            <p><strong>Ticket Number:</strong> %s</p>
            <p><strong>Quantity:</strong> %d</p>
          </div>

          <div style="text-align: center; margin-bottom: 20px;">
            <p>Please present this QR code at the event entrance:</p>
            <img src="cid:qr.png" alt="Ticket QR Code" style="max-width: 200px;">
          </div>
          %s
          <p>We look forward to seeing you at the event!</p>
        </div>`,
		event.Title,
		event.Title,
		event.StartDate.Format("Monday, 2 January 2006"),
		event.StartDate.Format(time.Kitchen),
		event.Location,
		ticket.TicketType,
		ticket.TicketNumber,
		ticket.Quantity,
		statusLine,
	)
}
