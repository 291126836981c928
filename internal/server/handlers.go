package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/detection"
	"github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/ocr"
	"github.com/ironsheep/chatshot/internal/pipeline"
	"github.com/ironsheep/chatshot/internal/timestamps"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "chat_extract").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		if errors.Is(err, errUnknownTool) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

var errUnknownTool = errors.New("unknown tool")

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Chat Extraction
	case "chat_detect_bubbles":
		return s.handleDetectBubbles(args)
	case "chat_locate_timestamps":
		return s.handleLocateTimestamps(ctx, args)
	case "chat_extract":
		return s.handleChatExtract(ctx, args)

	// OCR Operations
	case "image_ocr_region":
		return s.handleImageOCRRegion(ctx, args)
	case "ocr_info":
		return s.handleOCRInfo(ctx)

	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) loadPath(args json.RawMessage) (string, image.Image, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", nil, err
	}
	if a.Path == "" {
		return "", nil, errors.New("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return "", nil, err
	}
	return a.Path, img, nil
}

// === Basic Image Information Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	path, _, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	path, _, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, path)
}

// === Chat Extraction Handlers ===

type bubbleInfo struct {
	detection.Bubble
	// Fill is the bubble's most common color, for tuning the scanner palette.
	Fill string `json:"fill"`
}

type bubblesResult struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Bubbles []bubbleInfo `json:"bubbles"`
}

func (s *Server) handleDetectBubbles(args json.RawMessage) (interface{}, error) {
	_, img, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	prepared, err := s.pipeline.Prepare(img)
	if err != nil {
		return nil, err
	}
	bubbles := s.pipeline.Detect(prepared)
	infos := make([]bubbleInfo, 0, len(bubbles))
	for _, b := range bubbles {
		infos = append(infos, bubbleInfo{Bubble: b, Fill: imaging.Dominant(prepared, b.Rect()).Hex()})
	}
	b := prepared.Bounds()
	return &bubblesResult{Width: b.Dx(), Height: b.Dy(), Bubbles: infos}, nil
}

type timestampsResult struct {
	Timestamps []timestamps.Location `json:"timestamps"`
}

func (s *Server) handleLocateTimestamps(ctx context.Context, args json.RawMessage) (interface{}, error) {
	_, img, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	prepared, err := s.pipeline.Prepare(img)
	if err != nil {
		return nil, err
	}
	locs, err := s.pipeline.Locate(ctx, prepared)
	if err != nil {
		return nil, err
	}
	return &timestampsResult{Timestamps: locs}, nil
}

type chatExtractArgs struct {
	Path     string   `json:"path"`
	Paths    []string `json:"paths"`
	Annotate bool     `json:"annotate"`
}

type chatExtractResult struct {
	*pipeline.Transcript
	Annotated *imaging.EncodedImage `json:"annotated,omitempty"`
}

func (s *Server) handleChatExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a chatExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	paths := append([]string{a.Path}, a.Paths...)
	imgs := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := s.cache.Load(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		imgs = append(imgs, img)
	}

	transcript, err := s.pipeline.Transcribe(ctx, imgs...)
	if err != nil {
		return nil, err
	}
	result := &chatExtractResult{Transcript: transcript}

	if a.Annotate {
		analysis, err := s.pipeline.Analyze(ctx, imgs[0])
		if err != nil {
			return nil, err
		}
		annotated, err := s.pipeline.Annotate(imgs[0], analysis)
		if err != nil {
			return nil, err
		}
		if result.Annotated, err = imaging.EncodePNG(annotated); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === OCR Handlers ===

type imageOCRRegionArgs struct {
	Path     string `json:"path"`
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
	Language string `json:"language"`
}

func (s *Server) handleImageOCRRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOCRRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := s.pipeline.Config()
	if a.Language == "" {
		a.Language = cfg.Recognition.Language
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.CallTimeout())
	defer cancel()
	return ocr.ExtractTextFromRegion(ctx, s.engine, img, image.Rect(a.X1, a.Y1, a.X2, a.Y2), ocr.Options{
		Language:                a.Language,
		Whitelist:               ocr.TextWhitelist,
		PageSegMode:             ocr.PSMAuto,
		PreserveInterwordSpaces: true,
	})
}

func (s *Server) handleOCRInfo(ctx context.Context) (interface{}, error) {
	return ocr.Describe(ctx, s.engine, s.pipeline.Config().Recognition.Language), nil
}
