// Package config loads and validates chatshot configuration.
//
// Every heuristic constant used by the extraction pipeline (scan margins,
// intensity threshold, minimum message height, merge gap and padding, crop
// padding, maximum body length) lives here as a named, documented default so
// it can be tuned from a TOML file and overridden in tests.
//
// Obtain settings through Default, Load or Parse so downstream code always
// receives validated values.
package config
