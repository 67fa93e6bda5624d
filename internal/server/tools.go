package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties are shared by every tool that takes a photo.
func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the label photo (PNG, JPEG or GIF). Either path or image_base64 is required.",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded label photo, used when the file is not on the server's disk",
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional crop applied before processing, in pixel coordinates",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer", "description": "Left edge (inclusive)"},
				"y1": map[string]interface{}{"type": "integer", "description": "Top edge (inclusive)"},
				"x2": map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
				"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"named_region": map[string]interface{}{
			"type":        "string",
			"description": "Optional coarse crop by name. Ignored when region is set.",
			"enum": []string{
				"top-left", "top-right", "bottom-left", "bottom-right",
				"top-half", "bottom-half", "left-half", "right-half", "center",
			},
		},
		"reload": reloadProperty(),
	}
}

func reloadProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Read path from disk again instead of using the cached copy (default: false)",
		"default":     false,
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Label Analysis
		{
			Name:        "nutrition_scan_label",
			Description: "Read a nutrition facts label from a photo. Runs normalization, OCR, parsing and the health rules, and adds a plain-language summary when a narrative provider is configured. Returns a status, the parsed record, health flags, the mean OCR word confidence and any user-facing message.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageSourceProperties(), map[string]interface{}{
					"include_text": map[string]interface{}{
						"type":        "boolean",
						"description": "Include raw OCR text, cleaned text and recognized words with their boxes in the result (default: false)",
						"default":     false,
					},
				}),
			},
		},
		{
			Name:        "nutrition_parse_text",
			Description: "Parse nutrition facts from already extracted label text. Returns the cleaned text, parsed record, health flags and the summary payload. Set narrative to also request a summary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Label text, e.g. OCR output",
					},
					"narrative": map[string]interface{}{
						"type":        "boolean",
						"description": "Request a narrative summary when a provider is configured (default: false)",
						"default":     false,
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "nutrition_clean_text",
			Description: "Normalize OCR text the way the parser sees it: stray symbols dropped, words hyphenated across lines rejoined, whitespace collapsed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Raw label text",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "nutrition_health_flags",
			Description: "Apply the health rules to a nutrition record, as returned by nutrition_parse_text. Returns the flags and the summary payload.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"record": map[string]interface{}{
						"type":        "object",
						"description": "Record with a nutrients map keyed by nutrient name (calories, total_fat, sodium, ...), each {value, unit, daily_value_percent}",
					},
				},
				"required": []string{"record"},
			},
		},

		// Image Preparation
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"reload": reloadProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_normalize",
			Description: "Return the grayscale, contrast-boosted, sharpened and downscaled image exactly as OCR would see it, together with an exposure assessment.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
			},
		},

		// Status
		{
			Name:        "ocr_status",
			Description: "Report whether Tesseract and the configured language data are available, and whether narrative summaries are enabled.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
