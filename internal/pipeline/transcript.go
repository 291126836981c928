package pipeline

import (
	"context"
	"image"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/detection"
	"github.com/ironsheep/chatshot/internal/normalize"
	"github.com/ironsheep/chatshot/internal/ocr"
)

// Transcript is the conversation recovered from one or more screenshots.
type Transcript struct {
	ChatName string    `json:"chatName"`
	Messages []Message `json:"messages"`
}

// Transcribe processes screenshots given in chronological order and
// concatenates their messages. The chat name is read from the first
// screenshot's title bar; it is empty when it cannot be recognized.
func (p *Pipeline) Transcribe(ctx context.Context, imgs ...image.Image) (*Transcript, error) {
	t := &Transcript{Messages: []Message{}}
	for i, img := range imgs {
		prepared, err := p.Prepare(img)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			t.ChatName = p.ChatName(ctx, prepared)
		}
		messages, err := p.Process(ctx, prepared)
		if err != nil {
			return nil, err
		}
		t.Messages = append(t.Messages, messages...)
	}
	return t, nil
}

// ChatName recognizes the contact or group name in the title bar of img.
func (p *Pipeline) ChatName(ctx context.Context, img image.Image) string {
	b := img.Bounds()
	header := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+detection.DetectHeader(img))

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout())
	defer cancel()
	result, err := ocr.ExtractTextFromRegion(callCtx, p.engine, img, header, ocr.Options{
		Language:                p.cfg.Recognition.Language,
		Whitelist:               ocr.TextWhitelist,
		PageSegMode:             ocr.PSMAuto,
		PreserveInterwordSpaces: true,
	})
	if err != nil {
		p.logger.Warn("chat name recognition failed", zap.Error(err))
		return ""
	}
	for _, line := range strings.Split(result.Text, "\n") {
		if name := normalize.Line(line); name != "" && !isPresence(name) {
			return name
		}
	}
	return ""
}

// isPresence matches the status line shown under a contact's name.
func isPresence(line string) bool {
	l := strings.ToLower(line)
	return l == "online" || strings.HasPrefix(l, "last seen") || strings.HasPrefix(l, "typing")
}
