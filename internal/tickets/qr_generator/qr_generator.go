package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-concerts/internal/models"

	"github.com/skip2/go-qrcode"
)

// Payload is the ticket data sealed into a QR code.
type Payload struct {
	TicketID     string    `json:"ticket_id"`
	ConcertID    string    `json:"concert_id"`
	UserID       string    `json:"user_id"`
	PurchaseDate time.Time `json:"purchase_date"`
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GenerateEncryptedQR renders a PNG QR code holding the sealed ticket payload.
func (q *QRGenerator) GenerateEncryptedQR(ticket models.Ticket, size int) ([]byte, error) {
	sealed, err := q.Seal(ticket)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(sealed, qrcode.Medium, size)
}

// Seal encrypts the ticket payload with AES-GCM and base64url-encodes it.
func (q *QRGenerator) Seal(ticket models.Ticket) (string, error) {
	if ticket.PurchaseDate == nil {
		return "", models.ErrNotPurchased
	}
	userID, _ := ticket.Holder()
	data, err := json.Marshal(Payload{
		TicketID:     ticket.ID,
		ConcertID:    ticket.ConcertID,
		UserID:       userID,
		PurchaseDate: ticket.PurchaseDate.UTC(),
	})
	if err != nil {
		return "", err
	}

	gcm, err := q.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(gcm.Seal(nonce, nonce, data, nil)), nil
}

// DecryptQRData opens a sealed payload produced by Seal.
func (q *QRGenerator) DecryptQRData(sealed string) (*Payload, error) {
	raw, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode qr data: %w", err)
	}
	gcm, err := q.aead()
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, errors.New("qr data too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	data, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open qr data: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal qr payload: %w", err)
	}
	return &payload, nil
}

func (q *QRGenerator) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
