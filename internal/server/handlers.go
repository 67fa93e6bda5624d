package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/nutriscan-mcp/internal/health"
	"github.com/ironsheep/nutriscan-mcp/internal/imaging"
	"github.com/ironsheep/nutriscan-mcp/internal/narrative"
	"github.com/ironsheep/nutriscan-mcp/internal/nutrition"
	"github.com/ironsheep/nutriscan-mcp/internal/ocr"
	"github.com/ironsheep/nutriscan-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "nutrition_scan_label").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Pipeline outcomes such as "no readable text" are results, not errors.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("Tool execution failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads or decodes the image as needed
//  4. Calls the pipeline or imaging function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Label Analysis
	case "nutrition_scan_label":
		return s.handleScanLabel(ctx, args)
	case "nutrition_parse_text":
		return s.handleParseText(ctx, args)
	case "nutrition_clean_text":
		return s.handleCleanText(args)
	case "nutrition_health_flags":
		return s.handleHealthFlags(args)

	// Image Preparation
	case "image_load":
		return s.handleImageLoad(args)
	case "image_normalize":
		return s.handleImageNormalize(args)

	// Status
	case "ocr_status":
		return s.handleOCRStatus()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Source ===

// imageSourceArgs selects the photo and an optional crop.
type imageSourceArgs struct {
	Path        string          `json:"path"`
	ImageBase64 string          `json:"image_base64"`
	Region      *imaging.Region `json:"region"`
	NamedRegion string          `json:"named_region"`
	Reload      bool            `json:"reload"`
}

var errNoImage = errors.New("either path or image_base64 is required")

// loadImage resolves the source and applies the crop. Files go through the
// cache; inline uploads are decoded on every call.
func (s *Server) loadImage(a imageSourceArgs) (image.Image, error) {
	var img image.Image
	switch {
	case a.Path != "":
		if a.Reload {
			s.cache.Evict(a.Path)
		}
		loaded, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		img = loaded
	case a.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(a.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid image_base64: %w", err)
		}
		decoded, _, err := imaging.Decode(data)
		if err != nil {
			return nil, err
		}
		img = decoded
	default:
		return nil, errNoImage
	}

	switch {
	case a.Region != nil:
		return imaging.Crop(img, *a.Region)
	case a.NamedRegion != "":
		r, err := imaging.NamedRegion(img.Bounds(), a.NamedRegion)
		if err != nil {
			return nil, err
		}
		return imaging.Crop(img, r)
	}
	return img, nil
}

// === Label Analysis Handlers ===

type scanLabelArgs struct {
	imageSourceArgs
	IncludeText bool `json:"include_text"`
}

func (s *Server) handleScanLabel(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanLabelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.imageSourceArgs)
	if err != nil {
		return nil, err
	}

	res, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	if !a.IncludeText {
		res.RawText = ""
		res.CleanedText = ""
		res.Words = nil
	}
	return res, nil
}

type parseTextArgs struct {
	Text      string `json:"text"`
	Narrative bool   `json:"narrative"`
}

func (s *Server) handleParseText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a parseTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Narrative {
		return s.analyzer.AnalyzeText(ctx, a.Text)
	}
	return s.analyzer.Evaluate(ctx, a.Text), nil
}

type textArgs struct {
	Text string `json:"text"`
}

// CleanTextResult is returned by nutrition_clean_text.
type CleanTextResult struct {
	CleanedText string `json:"cleaned_text"`
}

func (s *Server) handleCleanText(args json.RawMessage) (interface{}, error) {
	var a textArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return &CleanTextResult{CleanedText: nutrition.Clean(a.Text)}, nil
}

type healthFlagsArgs struct {
	Record *nutrition.Record `json:"record"`
}

// HealthFlagsResult is returned by nutrition_health_flags.
type HealthFlagsResult struct {
	Flags   []health.Flag `json:"flags"`
	Payload string        `json:"payload"`
}

func (s *Server) handleHealthFlags(args json.RawMessage) (interface{}, error) {
	var a healthFlagsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Record == nil {
		return nil, fmt.Errorf("record is required")
	}
	flags := s.analyzer.Flags(*a.Record)
	return &HealthFlagsResult{
		Flags:   flags,
		Payload: narrative.BuildPayload(*a.Record, flags),
	}, nil
}

// === Image Preparation Handlers ===

type imageLoadArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// NormalizeResult is returned by image_normalize.
type NormalizeResult struct {
	Image    *imaging.EncodedImage `json:"image"`
	Exposure imaging.Exposure      `json:"exposure"`
}

func (s *Server) handleImageNormalize(args json.RawMessage) (interface{}, error) {
	var a imageSourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a)
	if err != nil {
		return nil, err
	}

	norm := s.analyzer.Normalize(img)
	encoded, err := imaging.EncodePNGBase64(norm)
	if err != nil {
		return nil, err
	}
	return &NormalizeResult{
		Image:    encoded,
		Exposure: imaging.AssessExposure(norm),
	}, nil
}

// === Status Handlers ===

// StatusResult is returned by ocr_status.
type StatusResult struct {
	OCR              ocr.Info          `json:"ocr"`
	NarrativeEnabled bool              `json:"narrative_enabled"`
	CachedImages     int               `json:"cached_images"`
	Statuses         []pipeline.Status `json:"statuses"`
}

func (s *Server) handleOCRStatus() (interface{}, error) {
	return &StatusResult{
		OCR:              s.ocr.Info(),
		NarrativeEnabled: s.analyzer.NarrativeEnabled(),
		CachedImages:     s.cache.Len(),
		Statuses: []pipeline.Status{
			pipeline.StatusNoText,
			pipeline.StatusNothingRecognized,
			pipeline.StatusComplete,
			pipeline.StatusNarrativeFailed,
			pipeline.StatusNarrativeSkipped,
		},
	}, nil
}
