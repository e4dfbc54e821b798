// Package qr renders QR code images for products and discounts.
package qr

import (
	"fmt"
	"image/png"
	"os"
	"strconv"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const imageSize = 256

// ProductPayload is the opaque string encoded into a product's QR code.
// It is never parsed back.
func ProductPayload(name string, price float64) string {
	return name + "_" + strconv.FormatFloat(price, 'f', -1, 64)
}

// DiscountPayload is the string encoded into a discount's QR code and parsed
// back on redemption.
func DiscountPayload(name string, percentage uint) string {
	return fmt.Sprintf("DISCOUNT:%s:%d", name, percentage)
}

// WriteFile encodes payload as a QR code and writes it as a PNG to path.
func WriteFile(payload, path string) error {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, imageSize, imageSize)
	if err != nil {
		return fmt.Errorf("scale qr: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create qr file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, scaled); err != nil {
		return fmt.Errorf("write qr png: %w", err)
	}
	return nil
}
