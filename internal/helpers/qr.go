package helpers

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// EncodeQRDataURL renders the signed payload as a PNG and wraps it in a
// data URL, which is what the stored ticket, the API response, and the
// inline email image all use.
func EncodeQRDataURL(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeQRDataURL returns the raw PNG bytes of a stored QR data URL, used
// when embedding the image into the confirmation email.
func DecodeQRDataURL(dataURL string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if len(dataURL) <= len(prefix) || dataURL[:len(prefix)] != prefix {
		return nil, fmt.Errorf("not a PNG data URL")
	}
	png, err := base64.StdEncoding.DecodeString(dataURL[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode QR data URL: %v", err)
	}
	return png, nil
}
