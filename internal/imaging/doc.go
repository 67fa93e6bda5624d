// Package imaging prepares photographed nutrition labels for OCR.
//
// The central type is Normalizer, which turns an arbitrary photo into a
// grayscale image with boosted contrast and sharpness, capped in size. The
// rest of the package is glue around it: loading and sniffing uploads,
// caching decoded images, cropping the label out of a larger photo, and
// assessing exposure so a failed scan can say why.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Normalizer holds only immutable
// options, and every other function is stateless. Input images are never
// modified.
//
// # Supported Formats
//
// PNG, JPEG and GIF, identified by content rather than file extension.
// Anything else is rejected with ErrUnsupportedFormat.
package imaging
