// Package timestamps finds clock times in chat screenshots.
//
// Find and Parse work on recognized text: they accept "H:MM" and "H.MM" with
// an optional AM/PM marker and drop out-of-range readings instead of
// correcting them. Locator recognizes the screenshot in horizontal slices
// with a digits-and-meridiem whitelist and reports each time with its
// bounding box, so it can later be matched to the nearest message bubble.
package timestamps
