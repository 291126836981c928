package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the screenshot",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a screenshot and return its dimensions and format. The decoded image is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a screenshot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Chat Extraction
		{
			Name:        "chat_detect_bubbles",
			Description: "Find message bubbles in a chat screenshot without reading their text. Returns each bubble's rectangle and whether it is left aligned (received) or right aligned (sent).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chat_locate_timestamps",
			Description: "Find clock times (e.g. 12:38 PM) in a chat screenshot and return their positions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chat_extract",
			Description: "Extract the conversation from one or more chat screenshots given in chronological order. Returns the chat name and messages with sender side and time.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Additional screenshots of the same conversation, in order, processed after path",
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the first screenshot with detected bubbles and timestamps outlined, as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// OCR Operations
		{
			Name:        "image_ocr_region",
			Description: "Recognize text in a rectangular region of a screenshot. Line bounds are in full-image coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the configured language",
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether text recognition is available, with the Tesseract version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
