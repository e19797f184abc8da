package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenAI(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` + jsonString(reply) + `},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
		case "/v1/embeddings":
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			type item struct {
				Object    string    `json:"object"`
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}
			resp := struct {
				Object string `json:"object"`
				Data   []item `json:"data"`
				Model  string `json:"model"`
			}{Object: "list", Model: "emb"}
			for i, in := range req.Input {
				resp.Data = append(resp.Data, item{Object: "embedding", Embedding: toyVector(in), Index: i})
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// toyVector embeds a text on three axes: rain, temperature, anything else.
func toyVector(s string) []float32 {
	s = strings.ToLower(s)
	v := []float32{0, 0, 0.1}
	if strings.Contains(s, "lluvia") || strings.Contains(s, "precipitación") {
		v[0] = 1
	}
	if strings.Contains(s, "temperatura") {
		v[1] = 1
	}
	return v
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1", MaxTokens: 50}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestGenerate(t *testing.T) {
	srv := fakeOpenAI(t, "Se esperan lluvias normales.")
	defer srv.Close()

	out, err := newTestClient(t, srv).Generate(context.Background(), "sistema", "pregunta")
	require.NoError(t, err)
	assert.Equal(t, "Se esperan lluvias normales.", out)
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Generate(context.Background(), "s", "p")
	assert.Error(t, err)
}

func TestIndexSearchRanksBySimilarity(t *testing.T) {
	srv := fakeOpenAI(t, "")
	defer srv.Close()
	c := newTestClient(t, srv)

	ix := NewIndex(c)
	require.NoError(t, ix.Add(context.Background(), []string{
		"• Temperatura media: 18.0 °C",
		"• Precipitación promedio: 80.0 mm/mes",
		"• Fuente: NASA POWER",
	}, map[string]string{"region": "Salta"}))
	assert.Equal(t, 3, ix.Len())

	got, err := ix.Search(context.Background(), "¿cuánta lluvia habrá?", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "• Precipitación promedio: 80.0 mm/mes", got[0].Content)
	assert.Equal(t, "Salta", got[0].Metadata["region"])
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestIndexSearchEmpty(t *testing.T) {
	ix := NewIndex(nil)
	got, err := ix.Search(context.Background(), "x", 3)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
