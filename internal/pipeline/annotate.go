package pipeline

import (
	"image"

	chatimg "github.com/ironsheep/chatshot/internal/imaging"
)

// Boxes converts an analysis into annotation outlines: bubbles colored by
// side, timestamps labelled with their 24-hour time.
func (a *Analysis) Boxes() []chatimg.Box {
	boxes := make([]chatimg.Box, 0, len(a.Bubbles)+len(a.Timestamps))
	for _, b := range a.Bubbles {
		c := chatimg.ColorSent
		if b.IsLeftAligned {
			c = chatimg.ColorReceived
		}
		boxes = append(boxes, chatimg.Box{Rect: b.Rect(), Color: c})
	}
	for _, loc := range a.Timestamps {
		boxes = append(boxes, chatimg.Box{
			Rect:  loc.Rect(),
			Color: chatimg.ColorTimestamp,
			Label: loc.Time.Format("15:04"),
		})
	}
	return boxes
}

// Annotate draws a's boxes over the prepared copy of img, the same image the
// analysis coordinates refer to.
func (p *Pipeline) Annotate(img image.Image, a *Analysis) (*image.RGBA, error) {
	prepared, err := p.Prepare(img)
	if err != nil {
		return nil, err
	}
	return chatimg.Annotate(prepared, a.Boxes()), nil
}
