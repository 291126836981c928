// Package ocr provides text recognition for screenshot crops using Tesseract.
//
// Callers depend on the Engine interface; Tesseract is the production
// implementation (via gosseract/v2) and EngineFunc makes test doubles trivial.
// Each Tesseract call owns its client for the duration of the call, so one
// engine value is safe to share across worker goroutines.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Options
//
// Message bodies are recognized with TextWhitelist and preserved interword
// spacing; timestamp slices use TimeWhitelist in single-block mode.
//
// # Cancellation
//
// Tesseract calls cannot be interrupted. Recognize returns ctx.Err() as soon
// as the context ends; the underlying call finishes in the background and
// releases its client.
//
// # Error Handling
//
// If line bounding box extraction fails, Recognize still returns the
// recognized text with an empty Lines slice.
package ocr
