package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeOllama(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("unexpected model %s", req.Model)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		// Length of the prompt lets tests tell calls apart.
		json.NewEncoder(w).Encode(ollamaEmbedResp{Embedding: []float64{float64(len(req.Prompt)), 0.5}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbed(t *testing.T) {
	c := NewEmbedClient(fakeOllama(t, 200).URL, "nomic-embed-text")
	vec, err := c.Embed(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 3 || vec[1] != 0.5 {
		t.Fatalf("unexpected vector %v", vec)
	}
}

func TestEmbedStatusError(t *testing.T) {
	c := NewEmbedClient(fakeOllama(t, 500).URL, "nomic-embed-text")
	_, err := c.Embed(context.Background(), "abc")
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestEmbedBatch(t *testing.T) {
	c := NewEmbedClient(fakeOllama(t, 200).URL, "nomic-embed-text")
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 3 || vecs[2][0] != 3 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
}

func TestEmbedBatchFails(t *testing.T) {
	c := NewEmbedClient(fakeOllama(t, 503).URL, "nomic-embed-text")
	_, err := c.EmbedBatch(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "embed batch [0]") {
		t.Fatalf("expected batch error, got %v", err)
	}
}
