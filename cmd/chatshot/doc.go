// Command chatshot recovers conversations from chat screenshots.
//
// Subcommands:
//
//	extract <image>...   print the messages in one or more screenshots
//	bubbles <image>      print detected message bubbles without reading them
//	serve-mcp            run the MCP server on stdio
//	serve-http           run the HTTP upload API
//	watch <dir>          transcribe screenshots dropped into a directory
//	doctor               check that text recognition works
//	config show|init     print or write the configuration
//	version              print build information
//
// Logs go to stderr. Set CHATSHOT_LOG_LEVEL or pass --log-level to change
// verbosity.
package main
