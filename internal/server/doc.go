// Package server implements the MCP (Model Context Protocol) server for chat
// screenshot extraction.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load a screenshot and get metadata
//   - image_dimensions: Get width and height
//
// Chat Extraction:
//   - chat_detect_bubbles: Find message bubbles and their side
//   - chat_locate_timestamps: Find clock times and their positions
//   - chat_extract: Recover the conversation, optionally with an annotated image
//
// OCR Operations:
//   - image_ocr_region: Extract text from a region
//   - ocr_info: Report recognition backend status
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime of
// the server, so inspecting bubbles and then extracting decodes once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string in data. Unknown tools and malformed params
// use -32602.
package server
