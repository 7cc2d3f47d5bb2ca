package utils

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// QRBase64 encodes data into a 256px PNG QR code and returns it as a base64
// string suitable for embedding in a data URI.  The session QR carries the
// bare token; the marking pipeline also accepts a full URL, so either
// payload scans correctly.
func QRBase64(data string) (string, error) {
	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
