// Package extract turns merged bubbles into chat messages.
//
// For each bubble the Extractor crops the screenshot with padding, prepares
// the crop for recognition (inverting dark-mode bubbles), recognizes it and
// normalizes the text. Associate gives bubbles without an inline time the
// nearest located timestamp, and Assemble filters the results into the final
// ordered message list.
package extract
