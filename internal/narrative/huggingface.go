package narrative

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultHuggingFaceURL is the hosted summarization model.
const DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models/facebook/bart-large-cnn"

// responseFields are the JSON paths, in order, where the inference API puts
// generated text for summarization and text-generation models.
var responseFields = []string{"0.summary_text", "0.generated_text", "summary_text", "generated_text"}

// HuggingFace calls the HuggingFace inference API.
type HuggingFace struct {
	client *resty.Client
	url    string
}

// HuggingFaceOptions configures a HuggingFace generator.
type HuggingFaceOptions struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func NewHuggingFace(opts HuggingFaceOptions) *HuggingFace {
	url := opts.URL
	if url == "" {
		url = DefaultHuggingFaceURL
	}
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(opts.Token).
		SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &HuggingFace{client: client, url: url}
}

type hfRequest struct {
	Inputs  string    `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Generate posts the preamble and payload as a single input and returns the
// first generated text.
func (h *HuggingFace) Generate(ctx context.Context, req Request) (string, error) {
	body := hfRequest{
		Inputs:  req.SystemInstructions + "\n\n" + req.UserPayload,
		Options: hfOptions{WaitForModel: true},
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(h.url)
	if err != nil {
		return "", newError(classify(err), fmt.Errorf("inference request failed: %w", err))
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "", newError(KindUnauthorized, fmt.Errorf("inference API returned status %d", code))
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return "", newError(KindTimeout, fmt.Errorf("inference API returned status %d", code))
	case code >= 300:
		return "", newError(KindNetwork, fmt.Errorf("inference API returned status %d: %s", code, truncate(resp.String(), 200)))
	}

	return extractText(resp.Body())
}

func extractText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", newError(KindMalformedResponse, fmt.Errorf("response is not JSON: %s", truncate(string(body), 200)))
	}
	for _, path := range responseFields {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return strings.TrimSpace(r.Str), nil
		}
	}
	return "", newError(KindMalformedResponse, fmt.Errorf("response has no generated text field"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
