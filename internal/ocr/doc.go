// Package ocr reads text from label images using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Tesseract
// implements the text extraction step of the scan pipeline: it accepts an
// already-normalized image.Image and returns the raw text, or word-level
// boxes and confidence through Recognize.
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
// Set TessdataPrefix (or NUTRISCAN_OCR_TESSDATA_PREFIX) when the data lives
// outside the library default. Info reports whether the configured language
// actually loads.
//
// # Images
//
// Images are handed to Tesseract as in-memory PNG bytes; no temporary files
// are written.
//
// # Error Handling
//
// Functions return errors for:
//   - Unsupported or missing language data
//   - Tesseract initialization failures
//   - A cancelled or expired context
//
// If bounding box extraction fails, Recognize still returns the text with
// an empty Words slice.
package ocr
