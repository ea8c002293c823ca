package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"aistudio/internal/stream"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "aistudio.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ModelCatalog(t *testing.T) {
	s := newTestStore(t)

	id, err := s.UpsertModel("GPT-4o", "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("UpsertModel() error = %v", err)
	}

	t.Run("get by id", func(t *testing.T) {
		m, err := s.GetModelConfig(id)
		if err != nil {
			t.Fatalf("GetModelConfig() error = %v", err)
		}
		if m.Provider != "openai" || m.ModelID != "gpt-4o" || m.Name != "GPT-4o" {
			t.Errorf("model = %+v", m)
		}
	})

	t.Run("upsert is idempotent by provider and model id", func(t *testing.T) {
		again, err := s.UpsertModel("GPT-4o (renamed)", "openai", "gpt-4o")
		if err != nil {
			t.Fatalf("UpsertModel() error = %v", err)
		}
		if again != id {
			t.Errorf("second upsert id = %d, want %d", again, id)
		}
		m, _ := s.GetModelConfig(id)
		if m.Name != "GPT-4o (renamed)" {
			t.Errorf("name = %q, want renamed", m.Name)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := s.GetModelConfig(9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("deactivated models are hidden", func(t *testing.T) {
		other, _ := s.UpsertModel("Claude", "anthropic", "claude-sonnet-4-20250514")
		if err := s.DeactivateModel(other); err != nil {
			t.Fatalf("DeactivateModel() error = %v", err)
		}
		if _, err := s.GetModelConfig(other); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound for inactive model", err)
		}
		models, err := s.ListActiveModels()
		if err != nil {
			t.Fatalf("ListActiveModels() error = %v", err)
		}
		for _, m := range models {
			if m.ID == other {
				t.Error("inactive model listed")
			}
		}
	})
}

func TestStore_Comparisons(t *testing.T) {
	s := newTestStore(t)

	rec := stream.ComparisonRecord{
		Prompt:     "Say hi",
		Model1Name: "GPT-4",
		Model2Name: "Claude",
		Response1:  "Hi",
		Response2:  "He",
		Duration1:  1200 * time.Millisecond,
		Duration2:  450 * time.Millisecond,
	}
	if err := s.SaveComparison(rec); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}

	got, err := s.ListComparisons(10)
	if err != nil {
		t.Fatalf("ListComparisons() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("comparisons = %d, want 1", len(got))
	}
	c := got[0]
	if c.Prompt != "Say hi" || c.Response1 != "Hi" || c.Response2 != "He" {
		t.Errorf("comparison = %+v", c)
	}
	if c.Duration1MS != 1200 || c.Duration2MS != 450 {
		t.Errorf("durations = %d/%d, want 1200/450", c.Duration1MS, c.Duration2MS)
	}
	if c.ID == "" {
		t.Error("missing id")
	}
}
