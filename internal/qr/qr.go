// Package qr renders ticket numbers as scannable PNG images.
package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels; at 45mm print width it
// gives roughly 280 dpi.
const DefaultSize = 512

var ErrEmptyContent = errors.New("qr content is empty")

// Renderer encodes at the Highest recovery level (about 30% of the
// symbol may be damaged and still decode).
type Renderer struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewRenderer() *Renderer {
	return &Renderer{Size: DefaultSize, Level: qrcode.Highest}
}

// Encode returns a PNG image encoding content
func (r *Renderer) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, r.Level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

var defaultRenderer = NewRenderer()

// Encode renders content with the default renderer
func Encode(content string) ([]byte, error) {
	return defaultRenderer.Encode(content)
}
