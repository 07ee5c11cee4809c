package whatsapp

import (
	"encoding/base64"
	"io"

	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the PNG edge length in pixels
const DefaultQRSize = 320

// QREncoder renders challenge codes for observers and, optionally, a terminal
type QREncoder struct {
	Size     int
	Terminal io.Writer
}

// Encode returns the challenge as a PNG data URL
func (e QREncoder) Encode(code string) (string, error) {
	size := e.Size
	if size <= 0 {
		size = DefaultQRSize
	}

	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		return "", errors.Wrap(err, "encode qr png")
	}

	if e.Terminal != nil {
		qrterminal.GenerateHalfBlock(code, qrterminal.L, e.Terminal)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
