package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Signer is the single keyed-MAC capability behind both the QR payload
// and the public ticket-status link. The key stays server-side; clients
// only ever see finished signatures.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) sum(data []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// qrIdentity is the field set the QR hash binds. Key order matters: the
// verifier re-marshals the same struct, so both sides serialize
// identically.
type qrIdentity struct {
	TicketID     string `json:"ticketId"`
	EventID      string `json:"eventId"`
	TicketNumber string `json:"ticketNumber"`
	UserID       string `json:"userId"`
}

// QRPayload carries what actually goes inside the QR image: the
// human-readable ticket number plus the keyed hash over the full ticket
// identity.
type QRPayload struct {
	TicketNumber string `json:"ticketNumber"`
	Hash         string `json:"hash"`
}

// TicketPayload produces the opaque string encoded into the QR image.
func (s *Signer) TicketPayload(ticketID, eventID, ticketNumber, userID string) (string, error) {
	identity, err := json.Marshal(qrIdentity{
		TicketID:     ticketID,
		EventID:      eventID,
		TicketNumber: ticketNumber,
		UserID:       userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ticket identity: %v", err)
	}

	payload, err := json.Marshal(QRPayload{
		TicketNumber: ticketNumber,
		Hash:         s.sum(identity),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal qr payload: %v", err)
	}

	return string(payload), nil
}

// VerifyTicketPayload recomputes the expected hash from the ticket's own
// identity fields and compares it to the scanned payload. Any parse
// failure or mismatch is simply "not valid".
func (s *Signer) VerifyTicketPayload(scanned, ticketID, eventID, ticketNumber, userID string) bool {
	var payload QRPayload
	if err := json.Unmarshal([]byte(scanned), &payload); err != nil {
		return false
	}
	if payload.TicketNumber != ticketNumber {
		return false
	}

	identity, err := json.Marshal(qrIdentity{
		TicketID:     ticketID,
		EventID:      eventID,
		TicketNumber: ticketNumber,
		UserID:       userID,
	})
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(payload.Hash), []byte(s.sum(identity)))
}

// SignLink signs the public status link for a ticket: the signature
// binds ticket id, event id and the issue timestamp (unix seconds).
func (s *Signer) SignLink(ticketID, eventID string, issuedAt int64) string {
	return s.sum([]byte(ticketID + "|" + eventID + "|" + strconv.FormatInt(issuedAt, 10)))
}

func (s *Signer) VerifyLink(ticketID, eventID string, issuedAt int64, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(s.SignLink(ticketID, eventID, issuedAt)))
}
