package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatimg "github.com/ironsheep/chatshot/internal/imaging"
)

func TestAnnotate(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	img := conversation().Render()

	a, err := p.Analyze(context.Background(), img)
	require.NoError(t, err)
	require.NotEmpty(t, a.Bubbles)

	boxes := a.Boxes()
	assert.Len(t, boxes, len(a.Bubbles)+len(a.Timestamps))
	for i, b := range a.Bubbles {
		want := chatimg.ColorSent
		if b.IsLeftAligned {
			want = chatimg.ColorReceived
		}
		assert.Equal(t, want, boxes[i].Color, "bubble %d", i)
	}

	out, err := p.Annotate(img, a)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), out.Bounds())

	first := a.Bubbles[0]
	assert.Equal(t, boxes[0].Color, out.RGBAAt(first.X, first.Y))
}
