package qr_test

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"ms-concerts/internal/models"
	qr "ms-concerts/internal/tickets/qr_generator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchasedTicket() models.Ticket {
	user := "user-1"
	purchased := time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)
	return models.Ticket{
		ID:           "ticket-1",
		ConcertID:    "concert-1",
		UserID:       &user,
		Status:       models.TicketStatusPurchased,
		PurchaseDate: &purchased,
	}
}

func TestGenerateEncryptedQRIsPNG(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")

	qrBytes, err := gen.GenerateEncryptedQR(purchasedTicket(), 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(qrBytes))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestSealAndDecrypt(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")
	ticket := purchasedTicket()

	sealed, err := gen.Seal(ticket)
	require.NoError(t, err)

	payload, err := gen.DecryptQRData(sealed)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, payload.TicketID)
	assert.Equal(t, ticket.ConcertID, payload.ConcertID)
	assert.Equal(t, "user-1", payload.UserID)
	assert.True(t, ticket.PurchaseDate.Equal(payload.PurchaseDate))

	other := qr.NewQRGenerator("another-secret")
	_, err = other.DecryptQRData(sealed)
	assert.Error(t, err, "a different secret must not open the payload")

	_, err = gen.DecryptQRData("not base64 !!")
	assert.Error(t, err)
}

func TestSealIsRandomized(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")

	a, err := gen.Seal(purchasedTicket())
	require.NoError(t, err)
	b, err := gen.Seal(purchasedTicket())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealRequiresPurchase(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")
	ticket := purchasedTicket()
	ticket.PurchaseDate = nil

	_, err := gen.Seal(ticket)
	assert.ErrorIs(t, err, models.ErrNotPurchased)
}
