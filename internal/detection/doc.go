// Package detection finds message bubbles in chat screenshots.
//
// Detection runs in two passes:
//
//  1. Scanner walks the rows between the header and the bottom margin and
//     compares each pixel with the background reference (the top-left pixel).
//     Consecutive content rows with the same alignment form a raw Bubble.
//  2. Merger joins raw bubbles that belong to one message: same side, a
//     vertical gap below Gap and left edges within Padding of each other.
//
// A row is left aligned (received) when its first content column is within
// LeftAlignRatio of the image width. Bubbles filled with a configured palette
// color are detected even when their brightness is close to the background,
// as with light green sent bubbles on a light theme.
//
// DetectHeader locates the app's title bar so the scanner can skip it.
//
// Neither pass reads text; coordinates are in the scanned image's space.
package detection
