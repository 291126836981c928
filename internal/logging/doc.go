// Package logging builds the zap loggers used across chatshot.
//
// Logs always go to stderr: stdout carries MCP protocol frames when serving
// and rendered messages when running the CLI. Library packages take a
// *zap.Logger and fall back to OrNop so tests and wiring code never need a
// real logger.
package logging
