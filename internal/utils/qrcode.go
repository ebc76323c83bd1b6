package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// QRCodePNG renders content as a 256px PNG QR code.
func QRCodePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 256)
}

// DataURI wraps a PNG for an <img src="...">.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
