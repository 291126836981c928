package detection

import (
	"image"

	chatimg "github.com/ironsheep/chatshot/internal/imaging"
)

const (
	headerSearchFraction  = 0.15
	headerDarkRowFraction = 0.80
	headerDarkChannel     = 50
	headerMinFraction     = 0.05
	headerDefaultFraction = 0.10
)

// DetectHeader estimates the height of the app's title bar.
//
// It looks at the top 15% of the image for rows that are mostly dark (over
// 80% of pixels with every channel below 50). The header ends one row below
// the last such row, but is never shorter than 5% of the image height. When no
// dark row is found it falls back to 10% of the height.
func DetectHeader(img image.Image) int {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	last := -1
	limit := int(float64(height) * headerSearchFraction)
	for y := 0; y < limit; y++ {
		dark := 0
		for x := 0; x < width; x++ {
			c := chatimg.ToRGB(img.At(b.Min.X+x, b.Min.Y+y))
			if c.R < headerDarkChannel && c.G < headerDarkChannel && c.B < headerDarkChannel {
				dark++
			}
		}
		if float64(dark) > float64(width)*headerDarkRowFraction {
			last = y
		}
	}

	if last < 0 {
		return int(float64(height) * headerDefaultFraction)
	}
	return max(last+1, int(float64(height)*headerMinFraction))
}
