package recognition

import (
	"math"
	"testing"

	"github.com/vxl-labs/glasscore/internal/models"
)

func newTestWorker() *Worker {
	return &Worker{session: make(map[string]*sessionAverage)}
}

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestWorker_SeedSessionCopiesEmbedding(t *testing.T) {
	w := newTestWorker()
	src := []float32{1, 2, 3}
	w.seedSession("alice", src, 1)

	src[0] = 99 // mutating the caller's slice must not affect the stored copy
	if w.session["alice"].embedding[0] != 1 {
		t.Fatalf("seedSession did not copy the embedding: got %v", w.session["alice"].embedding)
	}
	if w.session["alice"].count != 1 {
		t.Fatalf("expected seeded count 1, got %d", w.session["alice"].count)
	}
}

func TestWorker_FoldSessionRunningAverage(t *testing.T) {
	w := newTestWorker()
	w.seedSession("alice", []float32{0, 0}, 1)

	w.foldSession("alice", []float32{2, 4})
	got := w.session["alice"]
	if got.count != 2 {
		t.Fatalf("expected count 2 after one fold, got %d", got.count)
	}
	// (0*1 + 2) / 2 = 1, (0*1 + 4) / 2 = 2
	if !almostEqual(got.embedding[0], 1) || !almostEqual(got.embedding[1], 2) {
		t.Fatalf("unexpected folded embedding %v", got.embedding)
	}

	w.foldSession("alice", []float32{4, 8})
	got = w.session["alice"]
	if got.count != 3 {
		t.Fatalf("expected count 3 after two folds, got %d", got.count)
	}
	// (1*2 + 4) / 3 = 2, (2*2 + 8) / 3 = 4
	if !almostEqual(got.embedding[0], 2) || !almostEqual(got.embedding[1], 4) {
		t.Fatalf("unexpected folded embedding %v", got.embedding)
	}
}

func TestWorker_FoldSessionStartsFromOneWithNoPriorSeed(t *testing.T) {
	w := newTestWorker()
	w.gallery = galleryWithEntries(map[string]models.GalleryEntry{})

	w.foldSession("bob", []float32{2, 4})
	got := w.session["bob"]
	if got.count != 2 {
		t.Fatalf("expected count 2 (base count 1 folded once), got %d", got.count)
	}
	// base defaults to the observed embedding itself, so folding it with
	// itself leaves the value unchanged: (e*1 + e) / 2 = e
	if !almostEqual(got.embedding[0], 2) || !almostEqual(got.embedding[1], 4) {
		t.Fatalf("unexpected folded embedding %v", got.embedding)
	}
}
