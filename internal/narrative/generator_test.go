package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/ironsheep/nutriscan-mcp/internal/config"
)

var testRequest = Request{SystemInstructions: "be brief", UserPayload: "Calories: 250"}

func hfServer(t *testing.T, handler http.HandlerFunc) *HuggingFace {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHuggingFace(HuggingFaceOptions{URL: srv.URL, Token: "hf_test", Timeout: 2 * time.Second})
}

func TestHuggingFace_Generate(t *testing.T) {
	t.Run("Should send bearer token and combined inputs", func(t *testing.T) {
		var gotAuth string
		var gotBody map[string]any
		hf := hfServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			fmt.Fprint(w, `[{"summary_text":"  A hearty serving.  "}]`)
		})

		text, err := hf.Generate(context.Background(), testRequest)

		require.NoError(t, err)
		assert.Equal(t, "A hearty serving.", text)
		assert.Equal(t, "Bearer hf_test", gotAuth)
		assert.Equal(t, "be brief\n\nCalories: 250", gotBody["inputs"])
		assert.Equal(t, map[string]any{"wait_for_model": true}, gotBody["options"])
	})

	t.Run("Should accept generated_text responses", func(t *testing.T) {
		hf := hfServer(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[{"generated_text":"Balanced snack."}]`)
		})

		text, err := hf.Generate(context.Background(), testRequest)

		require.NoError(t, err)
		assert.Equal(t, "Balanced snack.", text)
	})

	testCases := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"Invalid token"}`, KindUnauthorized},
		{"forbidden", http.StatusForbidden, `{"error":"forbidden"}`, KindUnauthorized},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, KindNetwork},
		{"model loading", http.StatusServiceUnavailable, `{"error":"loading"}`, KindNetwork},
		{"gateway timeout", http.StatusGatewayTimeout, ``, KindTimeout},
		{"not json", http.StatusOK, `<html>oops</html>`, KindMalformedResponse},
		{"missing field", http.StatusOK, `[{"label":"x"}]`, KindMalformedResponse},
		{"empty text", http.StatusOK, `[{"summary_text":"   "}]`, KindMalformedResponse},
	}
	for _, tc := range testCases {
		t.Run("Should classify "+tc.name, func(t *testing.T) {
			hf := hfServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})

			text, err := hf.Generate(context.Background(), testRequest)

			require.Error(t, err)
			assert.Empty(t, text)
			var gerr *GenerationError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tc.want, gerr.Kind)
		})
	}

	t.Run("Should report a timeout when the context expires", func(t *testing.T) {
		release := make(chan struct{})
		hf := hfServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := hf.Generate(ctx, testRequest)

		require.Error(t, err)
		assert.Equal(t, KindTimeout, KindOf(err))
	})

	t.Run("Should report a network error when the server is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		hf := NewHuggingFace(HuggingFaceOptions{URL: url, Token: "x", Timeout: time.Second})

		_, err := hf.Generate(context.Background(), testRequest)

		require.Error(t, err)
		assert.Equal(t, KindNetwork, KindOf(err))
	})
}

type stubModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (s *stubModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	s.messages = messages
	return s.resp, s.err
}

func (s *stubModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}

func TestLangChain_Generate(t *testing.T) {
	t.Run("Should send system and human messages", func(t *testing.T) {
		model := &stubModel{resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "\nA light snack.\n"}},
		}}
		lc := NewLangChainWithModel(model, LangChainOptions{Temperature: 0.2, MaxTokens: 100})

		text, err := lc.Generate(context.Background(), testRequest)

		require.NoError(t, err)
		assert.Equal(t, "A light snack.", text)
		require.Len(t, model.messages, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
		assert.Equal(t, llms.TextContent{Text: "be brief"}, model.messages[0].Parts[0])
		assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
		assert.Equal(t, llms.TextContent{Text: "Calories: 250"}, model.messages[1].Parts[0])
	})

	t.Run("Should treat missing choices as malformed", func(t *testing.T) {
		lc := NewLangChainWithModel(&stubModel{resp: &llms.ContentResponse{}}, LangChainOptions{})

		_, err := lc.Generate(context.Background(), testRequest)

		assert.Equal(t, KindMalformedResponse, KindOf(err))
	})

	t.Run("Should treat blank content as malformed", func(t *testing.T) {
		lc := NewLangChainWithModel(&stubModel{resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "  "}},
		}}, LangChainOptions{})

		_, err := lc.Generate(context.Background(), testRequest)

		assert.Equal(t, KindMalformedResponse, KindOf(err))
	})

	t.Run("Should classify provider errors", func(t *testing.T) {
		lc := NewLangChainWithModel(&stubModel{err: errors.New("API returned unexpected status code: 401: Incorrect API key provided")}, LangChainOptions{})

		_, err := lc.Generate(context.Background(), testRequest)

		assert.Equal(t, KindUnauthorized, KindOf(err))
	})
}

func TestKindOf(t *testing.T) {
	t.Run("Should prefer the typed kind", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", newError(KindMalformedResponse, errors.New("timeout in body")))

		assert.Equal(t, KindMalformedResponse, KindOf(err))
	})

	t.Run("Should classify plain errors", func(t *testing.T) {
		assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
		assert.Equal(t, KindNetwork, KindOf(errors.New("connection refused")))
	})

	t.Run("Should give each kind a distinct message", func(t *testing.T) {
		seen := map[string]Kind{}
		for _, k := range []Kind{KindUnauthorized, KindMalformedResponse, KindTimeout, KindNetwork} {
			msg := k.UserMessage()
			_, dup := seen[msg]
			assert.False(t, dup, "duplicate message for %s", k)
			seen[msg] = k
		}
	})
}

func TestNewGenerator(t *testing.T) {
	t.Run("Should return nil when disabled", func(t *testing.T) {
		gen, err := NewGenerator(config.Narrative{Provider: config.ProviderNone})

		require.NoError(t, err)
		assert.Nil(t, gen)
	})

	t.Run("Should build huggingface", func(t *testing.T) {
		gen, err := NewGenerator(config.Narrative{Provider: config.ProviderHuggingFace, APIToken: "t", Timeout: time.Second})

		require.NoError(t, err)
		assert.IsType(t, &HuggingFace{}, gen)
	})

	t.Run("Should build ollama through langchain", func(t *testing.T) {
		gen, err := NewGenerator(config.Narrative{Provider: config.ProviderOllama, Model: "llama3", URL: "http://localhost:11434"})

		require.NoError(t, err)
		assert.IsType(t, &LangChain{}, gen)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		gen, err := NewGenerator(config.Narrative{Provider: "carrier-pigeon"})

		require.Error(t, err)
		assert.Nil(t, gen)
	})
}
