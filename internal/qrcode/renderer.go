package qrcode

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
)

const (
	qrSize     = 512
	cardWidth  = 1000
	cardHeight = 1400
)

// Images holds the public references of the rendered files
type Images struct {
	QR   string
	Card string
}

// Renderer writes a QR code and a printable card for each tag into a media directory
type Renderer struct {
	mediaDir      string
	publicBaseURL string
	templatePath  string
}

// NewRenderer creates a renderer. templatePath may be empty, in which case a plain card is drawn.
func NewRenderer(mediaDir, publicBaseURL, templatePath string) *Renderer {
	return &Renderer{
		mediaDir:      mediaDir,
		publicBaseURL: publicBaseURL,
		templatePath:  templatePath,
	}
}

// PublicURL is the info page a scanned tag points to
func (r *Renderer) PublicURL(customID string) string {
	return fmt.Sprintf("%s/t/%s", r.publicBaseURL, customID)
}

// Render encodes the tag's public URL and saves the QR and card PNGs
func (r *Renderer) Render(customID string) (*Images, error) {
	code, err := r.encode(customID)
	if err != nil {
		return nil, err
	}

	for _, sub := range []string{"qr", "cards"} {
		if err := os.MkdirAll(filepath.Join(r.mediaDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create media dir: %w", err)
		}
	}

	qrName := filepath.Join("qr", customID+".png")
	if err := imaging.Save(code, filepath.Join(r.mediaDir, qrName)); err != nil {
		return nil, fmt.Errorf("failed to save qr image: %w", err)
	}

	card, err := r.compose(code)
	if err != nil {
		return nil, err
	}

	cardName := filepath.Join("cards", customID+".png")
	if err := imaging.Save(card, filepath.Join(r.mediaDir, cardName)); err != nil {
		return nil, fmt.Errorf("failed to save card image: %w", err)
	}

	return &Images{
		QR:   "/media/" + filepath.ToSlash(qrName),
		Card: "/media/" + filepath.ToSlash(cardName),
	}, nil
}

func (r *Renderer) encode(customID string) (image.Image, error) {
	code, err := qr.Encode(r.PublicURL(customID), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}

	code, err = barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scale qr: %w", err)
	}
	return code, nil
}

// compose places the QR code in the middle of the card template
func (r *Renderer) compose(code image.Image) (image.Image, error) {
	var background image.Image
	if r.templatePath != "" {
		tpl, err := imaging.Open(r.templatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open card template: %w", err)
		}
		background = tpl
	} else {
		background = imaging.New(cardWidth, cardHeight, color.White)
	}

	bounds := background.Bounds()
	side := bounds.Dx() * 3 / 5
	if h := bounds.Dy() * 3 / 5; h < side {
		side = h
	}
	scaled := imaging.Resize(code, side, side, imaging.NearestNeighbor)

	return imaging.PasteCenter(background, scaled), nil
}
