package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"webskim/internal/domain"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)
	ws := newSearchFixture(nil, nil)

	if err := r.Register(ws); err != nil {
		t.Fatal(err)
	}

	got, err := r.Get("web_search")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name() != "web_search" {
		t.Errorf("Get returned %q", got.Name())
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(newSearchFixture(nil, nil)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(newSearchFixture(nil, nil)); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get("nonexistent")
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Errorf("expected tool-not-found sentinel, got %v", err)
	}
}

func TestRegistryListAndSchemas(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(newSearchFixture(nil, nil))
	r.Register(newWebsiteFixture(nil))

	if got := len(r.List()); got != 2 {
		t.Errorf("List() returned %d tools, want 2", got)
	}
	if got := len(r.Schemas()); got != 2 {
		t.Errorf("Schemas() returned %d schemas, want 2", got)
	}
}

func TestRegistrySchemaValidationWrapping(t *testing.T) {
	r := NewRegistry(newTestLogger())
	if err := r.Register(newWebsiteFixture(nil)); err != nil {
		t.Fatal(err)
	}

	gw, err := r.Get("get_website")
	if err != nil {
		t.Fatal(err)
	}

	// url must be a string per the schema; the wrapper rejects this before
	// the tool runs.
	result, err := gw.Execute(context.Background(), json.RawMessage(`{"url":42}`))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected schema validation to reject non-string url")
	}
}
