package watsonx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okarpov/jobforge/internal/ai"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/token" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"expires_in":   3600,
			})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		URL:       srv.URL,
		AuthURL:   srv.URL + "/identity/token",
		APIKey:    "api-key",
		ProjectID: "project-1",
		Model:     "ibm/granite-13b-instruct-v2",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return srv, client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k", ProjectID: "p"}, nil); err == nil {
		t.Fatal("expected error for missing url")
	}

	if _, err := NewClient(Config{URL: "https://example.com", ProjectID: "p"}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}

	if _, err := NewClient(Config{URL: "https://example.com", APIKey: "k"}, nil); err == nil {
		t.Fatal("expected error for missing project, space and deployment")
	}
}

func TestGenerateTextFoundationModel(t *testing.T) {
	var gotRequest generationRequest

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ml/v1/text/generation" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"generated_text": " generated posting "}},
		})
	})

	text, err := client.GenerateText(context.Background(), "write a posting", ai.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "generated posting" {
		t.Fatalf("unexpected text: %q", text)
	}

	if gotRequest.ModelID != "ibm/granite-13b-instruct-v2" {
		t.Fatalf("unexpected model id: %s", gotRequest.ModelID)
	}

	if gotRequest.ProjectID != "project-1" {
		t.Fatalf("unexpected project id: %s", gotRequest.ProjectID)
	}

	if gotRequest.Parameters.MaxNewTokens != 800 || gotRequest.Parameters.RepetitionPenalty != 1.1 {
		t.Fatalf("unexpected parameters: %+v", gotRequest.Parameters)
	}
}

func TestGenerateTextDeploymentPath(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/token" {
			json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "expires_in": 3600})
			return
		}

		gotPath = r.URL.Path

		var request generationRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if request.ModelID != "" || request.ProjectID != "" {
			t.Fatalf("deployment request must not carry model or project: %+v", request)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"generated_text": "ok"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		URL:          srv.URL,
		AuthURL:      srv.URL + "/identity/token",
		APIKey:       "api-key",
		DeploymentID: "dep-42",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.GenerateText(context.Background(), "prompt", ai.DefaultParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/ml/v1/deployments/dep-42/text/generation" {
		t.Fatalf("unexpected path: %s", gotPath)
	}

	if got := client.Model(); got != "deployment/dep-42" {
		t.Fatalf("unexpected model name: %s", got)
	}
}

func TestGenerateTextRetriesOnServerError(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	var calls atomic.Int32

	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"generated_text": "retry ok"}},
		})
	})

	text, err := client.GenerateText(context.Background(), "prompt", ai.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "retry ok" {
		t.Fatalf("unexpected text: %q", text)
	}

	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGenerateTextDoesNotRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	if _, err := client.GenerateText(context.Background(), "prompt", ai.DefaultParams()); err == nil {
		t.Fatal("expected error")
	}

	if calls.Load() != 1 {
		t.Fatalf("expected single call, got %d", calls.Load())
	}
}

func TestGenerateTextStopsAfterRetriesExhausted(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	var calls atomic.Int32

	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.GenerateText(context.Background(), "prompt", ai.DefaultParams())
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestEmbed(t *testing.T) {
	var gotRequest embeddingRequest

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ml/v1/text/embeddings" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"embedding": []float64{0.1, 0.2, 0.3}}},
		})
	})

	embedder := client.Embedder()

	vector, err := embedder.Embed(context.Background(), "Skills: Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vector) != 3 || vector[1] != 0.2 {
		t.Fatalf("unexpected vector: %v", vector)
	}

	if len(gotRequest.Inputs) != 1 || gotRequest.Inputs[0] != "Skills: Go" {
		t.Fatalf("unexpected inputs: %v", gotRequest.Inputs)
	}

	if gotRequest.ModelID != defaultEmbeddingModel {
		t.Fatalf("expected default embedding model, got %s", gotRequest.ModelID)
	}
}

func TestAccessTokenIsCached(t *testing.T) {
	var tokenCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/token" {
			tokenCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "expires_in": 3600})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"generated_text": "ok"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		URL:       srv.URL,
		AuthURL:   srv.URL + "/identity/token",
		APIKey:    "api-key",
		ProjectID: "p",
		Model:     "m",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := client.GenerateText(context.Background(), "prompt", ai.DefaultParams()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if tokenCalls.Load() != 1 {
		t.Fatalf("expected a single token exchange, got %d", tokenCalls.Load())
	}
}
