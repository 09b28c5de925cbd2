package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/bookscan/internal/providers"
)

func TestExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model  string   `json:"model"`
			Prompt string   `json:"prompt"`
			Images []string `json:"images"`
			Stream bool     `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llava" || req.Prompt != "read it" || req.Stream {
			t.Errorf("unexpected request %+v", req)
		}
		if len(req.Images) != 1 || req.Images[0] != base64.StdEncoding.EncodeToString([]byte("img")) {
			t.Errorf("unexpected images %v", req.Images)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "THE HOBBIT\nJ.R.R. Tolkien"})
	}))
	defer server.Close()

	p := New(server.URL+"/", server.Client())
	text, err := p.ExtractText(context.Background(), providers.Config{Model: "llava", Prompt: "read it", Image: []byte("img")})
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "THE HOBBIT\nJ.R.R. Tolkien" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestExtractTextNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := New(server.URL, server.Client())
	if _, err := p.ExtractText(context.Background(), providers.Config{Model: "missing"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
