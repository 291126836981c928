// Package imaging provides the image operations the chat extractor is built on.
//
// It covers decoding screenshots (PNG, JPEG, GIF and WebP, with EXIF
// orientation applied), cropping bubble regions with padding, preparing crops
// for recognition (grayscale, invert, contrast, upscale, threshold), simple
// color analysis, and drawing annotation boxes for debugging detections.
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left), Max is exclusive (bottom-right)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The other operations never
// modify their input and can run concurrently on a shared image.
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. Large images may consume significant memory when cached.
// Consider using Evict() or Clear() to manage memory for long-running processes.
package imaging
