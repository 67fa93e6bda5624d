package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded images kept by NewImageCache.
const DefaultCacheSize = 32

// ErrUnsupportedFormat is returned for content that is not PNG, JPEG or GIF.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// supportedFormats maps sniffed MIME types onto short format names.
var supportedFormats = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
}

// DetectFormat sniffs data and returns the short format name and MIME type.
//
// Detection is based on content, not on file extension, so a PNG saved as
// label.jpg is still reported as "png".
//
// # Errors
//
//   - Returns an error wrapping ErrUnsupportedFormat for anything other than
//     PNG, JPEG or GIF
func DetectFormat(data []byte) (format, mimeType string, err error) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if f, ok := supportedFormats[m.String()]; ok {
			return f, m.String(), nil
		}
	}
	return "", mt.String(), fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
}

// Decode sniffs and decodes an in-memory image.
//
// Parameters:
//   - data: Raw file content, e.g. a base64-decoded upload.
//
// Returns:
//   - image.Image: The decoded image.
//   - string: The sniffed format: "png", "jpeg" or "gif".
//   - error: Non-nil if the content is unsupported or corrupt.
func Decode(data []byte) (image.Image, string, error) {
	format, _, err := DetectFormat(data)
	if err != nil {
		return nil, "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return img, format, nil
}

// ImageCache is a bounded cache of decoded images keyed by file path.
//
// The least recently used image is evicted once the cache holds its
// configured number of entries, so memory stays bounded for long-running
// servers that see many uploads.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache, err := imaging.NewImageCacheSize(16)
//	if err != nil {
//	    return err
//	}
//	img, err := cache.Load("/path/to/label.jpg")
type ImageCache struct {
	images *lru.Cache[string, image.Image]
}

// NewImageCache creates a cache holding up to DefaultCacheSize images.
func NewImageCache() *ImageCache {
	c, err := NewImageCacheSize(DefaultCacheSize)
	if err != nil {
		// DefaultCacheSize is positive
		panic(err)
	}
	return c
}

// NewImageCacheSize creates a cache holding up to size images.
func NewImageCacheSize(size int) (*ImageCache, error) {
	images, err := lru.New[string, image.Image](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	return &ImageCache{images: images}, nil
}

// Load retrieves an image from the cache or reads and decodes it from disk.
//
// The image is cached using the exact path string provided. Different paths
// to the same file (e.g., relative vs absolute) result in separate entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns an error wrapping ErrUnsupportedFormat if the content is not
//     PNG, JPEG or GIF
//   - Returns error if the content cannot be decoded
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.images.Get(path); ok {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	c.images.Add(path, img)
	return img, nil
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	return c.images.Len()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.images.Remove(path)
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the sniffed image format: "png", "jpeg" or "gif".
	Format string `json:"format"`

	// MimeType is the sniffed MIME type, e.g. "image/jpeg".
	MimeType string `json:"mime_type"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and reports its metadata.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff file: %w", err)
	}
	format, mimeType := "unknown", mt.String()
	for m := mt; m != nil; m = m.Parent() {
		if f, ok := supportedFormats[m.String()]; ok {
			format, mimeType = f, m.String()
			break
		}
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		MimeType:      mimeType,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
