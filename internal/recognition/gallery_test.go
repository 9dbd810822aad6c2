package recognition

import (
	"context"
	"testing"
	"time"

	"github.com/vxl-labs/glasscore/internal/models"
)

func galleryWithEntries(entries map[string]models.GalleryEntry) *Gallery {
	return &Gallery{
		entries:  entries,
		loadedAt: time.Now(),
		ttl:      time.Hour,
	}
}

func TestGallery_MatchPicksBestScore(t *testing.T) {
	g := galleryWithEntries(map[string]models.GalleryEntry{
		"alice": {PersonID: "alice", Embedding: []float32{1, 0, 0}},
		"bob":   {PersonID: "bob", Embedding: []float32{0, 1, 0}},
	})

	id, score, found := g.Match(context.Background(), []float32{1, 0, 0}, 0.2)
	if !found {
		t.Fatal("expected a match")
	}
	if id != "alice" {
		t.Fatalf("expected alice, got %q", id)
	}
	if score != 1 {
		t.Fatalf("expected similarity 1, got %v", score)
	}
}

func TestGallery_MatchTieBreaksByLexicographicID(t *testing.T) {
	g := galleryWithEntries(map[string]models.GalleryEntry{
		"zed":   {PersonID: "zed", Embedding: []float32{1, 0, 0}},
		"alice": {PersonID: "alice", Embedding: []float32{1, 0, 0}},
		"mike":  {PersonID: "mike", Embedding: []float32{1, 0, 0}},
	})

	id, _, found := g.Match(context.Background(), []float32{1, 0, 0}, 0.2)
	if !found {
		t.Fatal("expected a match")
	}
	if id != "alice" {
		t.Fatalf("expected tie broken toward lexicographically first id alice, got %q", id)
	}
}

func TestGallery_MatchBelowThresholdReturnsNotFound(t *testing.T) {
	g := galleryWithEntries(map[string]models.GalleryEntry{
		"alice": {PersonID: "alice", Embedding: []float32{0, 1, 0}},
	})

	_, _, found := g.Match(context.Background(), []float32{1, 0, 0}, 0.2)
	if found {
		t.Fatal("expected no match below threshold")
	}
}

func TestGallery_MatchEmptyGallery(t *testing.T) {
	g := galleryWithEntries(map[string]models.GalleryEntry{})
	_, _, found := g.Match(context.Background(), []float32{1, 0, 0}, 0.2)
	if found {
		t.Fatal("expected no match against an empty gallery")
	}
}
