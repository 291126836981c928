package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PadRect grows rect by padding on every side and clips it to bounds.
//
// The result may be empty when rect lies entirely outside bounds.
func PadRect(rect image.Rectangle, padding int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(
		rect.Min.X-padding,
		rect.Min.Y-padding,
		rect.Max.X+padding,
		rect.Max.Y+padding,
	).Intersect(bounds)
}

// CropPadded extracts rect expanded by padding, clipped to the image bounds.
//
// The returned image is a copy with its origin at (0,0); the source image is
// never modified. The second return value is the clipped rectangle in source
// coordinates, needed to map recognition results back onto the screenshot.
func CropPadded(img image.Image, rect image.Rectangle, padding int) (*image.NRGBA, image.Rectangle, error) {
	clipped := PadRect(rect, padding, img.Bounds())
	if clipped.Empty() {
		return nil, clipped, fmt.Errorf("crop region %v outside image bounds %v", rect, img.Bounds())
	}
	return imaging.Crop(img, clipped), clipped, nil
}

// EncodedImage contains an image encoded as base64 PNG.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG result.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
