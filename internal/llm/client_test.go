package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeEndpoint struct {
	models     []string
	modelsCode int

	completionCode int
	completionBody any
	lastRequest    chatRequest
}

func (f *fakeEndpoint) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/models":
			if f.modelsCode != 0 {
				w.WriteHeader(f.modelsCode)
				return
			}
			data := make([]map[string]any, 0, len(f.models))
			for _, id := range f.models {
				data = append(data, map[string]any{"id": id})
			}
			json.NewEncoder(w).Encode(map[string]any{"data": data})
		case "/chat/completions":
			if err := json.NewDecoder(r.Body).Decode(&f.lastRequest); err != nil {
				t.Errorf("bad completion request: %v", err)
			}
			if f.completionCode != 0 {
				w.WriteHeader(f.completionCode)
			}
			json.NewEncoder(w).Encode(f.completionBody)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestResolveModel_DefaultAvailable(t *testing.T) {
	f := &fakeEndpoint{models: []string{"other", "my-model"}}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	if got := c.ResolveModel(); got != "my-model" {
		t.Errorf("expected default model, got %q", got)
	}
}

func TestResolveModel_DefaultMissingFallsBackToFirst(t *testing.T) {
	f := &fakeEndpoint{models: []string{"first", "second"}}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	if got := c.ResolveModel(); got != "first" {
		t.Errorf("expected first available model, got %q", got)
	}
}

func TestResolveModel_EmptySetTrustsDefault(t *testing.T) {
	f := &fakeEndpoint{modelsCode: http.StatusInternalServerError}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	if len(c.AvailableModels()) != 0 {
		t.Fatal("expected empty available set after failed query")
	}
	if got := c.ResolveModel(); got != "my-model" {
		t.Errorf("expected default model despite failed query, got %q", got)
	}
}

func TestComplete_Success(t *testing.T) {
	f := &fakeEndpoint{
		models:         []string{"my-model"},
		completionBody: completionBody("Hello!"),
	}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	got := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if got != "Hello!" {
		t.Errorf("expected %q, got %q", "Hello!", got)
	}
	if f.lastRequest.Model != "my-model" {
		t.Errorf("expected resolved model in request, got %q", f.lastRequest.Model)
	}
	if len(f.lastRequest.Messages) != 1 || f.lastRequest.Messages[0].Content != "hi" {
		t.Errorf("unexpected request messages: %+v", f.lastRequest.Messages)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	f := &fakeEndpoint{
		models:         []string{"my-model"},
		completionBody: map[string]any{"choices": []any{}},
	}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	got := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if got != invalidResponseReply {
		t.Errorf("expected invalid-response apology, got %q", got)
	}
}

func TestComplete_ModelNotFoundListsModels(t *testing.T) {
	f := &fakeEndpoint{
		models:         []string{"alpha", "beta"},
		completionCode: http.StatusNotFound,
		completionBody: map[string]any{"error": "model not found"},
	}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	got := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !strings.Contains(got, "unavailable") {
		t.Errorf("expected model-unavailable apology, got %q", got)
	}
	if !strings.Contains(got, "alpha, beta") {
		t.Errorf("expected available model list in apology, got %q", got)
	}
}

func TestComplete_APIErrorIncludesErrorText(t *testing.T) {
	f := &fakeEndpoint{
		models:         []string{"my-model"},
		completionCode: http.StatusInternalServerError,
		completionBody: map[string]any{"error": "boom"},
	}
	srv := f.server(t)
	defer srv.Close()

	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	got := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !strings.Contains(got, "AI service error") {
		t.Errorf("expected generic API apology, got %q", got)
	}
	if !strings.Contains(got, "500") {
		t.Errorf("expected status in apology, got %q", got)
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	f := &fakeEndpoint{models: []string{"my-model"}}
	srv := f.server(t)
	c := NewClient("key", srv.URL, "my-model", zerolog.Nop(), nil)
	srv.Close() // force a connection error

	got := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !strings.HasPrefix(got, "Sorry, I encountered an error:") {
		t.Errorf("expected transport apology, got %q", got)
	}
}
