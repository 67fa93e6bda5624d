// Package server implements the MCP (Model Context Protocol) server for
// nutrition label analysis.
//
// This package provides a JSON-RPC 2.0 server that exposes the scan
// pipeline through the MCP protocol, so MCP-compatible assistants can read
// nutrition facts panels from photos and explain them.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Label Analysis:
//   - nutrition_scan_label: Photo to record, flags and optional narrative
//   - nutrition_parse_text: Text to record, flags and payload
//   - nutrition_clean_text: OCR text cleanup only
//   - nutrition_health_flags: Record to flags
//
// Image Preparation:
//   - image_load: Image metadata
//   - image_normalize: The image as OCR sees it, plus an exposure check
//
// Status:
//   - ocr_status: Tesseract availability and narrative configuration
//
// # Image Caching
//
// Images given by path are decoded once and kept in a bounded LRU cache.
// Inline base64 uploads are never cached.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Pipeline outcomes such as "no readable text" or a failed narrative are
// normal results carrying a status and message.
//
// # Usage
//
//	srv := server.New(
//	    server.WithAnalyzer(analyzer),
//	    server.WithOCR(tess),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
