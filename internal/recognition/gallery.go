package recognition

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vxl-labs/glasscore/internal/models"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/vision"
)

// Gallery is the Recognition Worker's in-memory view of the store's
// centroids (spec §4.2 step 4). It never runs on the store side — cosine
// similarity is computed entirely here.
type Gallery struct {
	mu       sync.RWMutex
	entries  map[string]models.GalleryEntry
	loadedAt time.Time
	ttl      time.Duration

	db  *storage.PostgresStore
	bus *queue.Bus

	unsubscribe func()
}

func NewGallery(ctx context.Context, db *storage.PostgresStore, bus *queue.Bus, ttl time.Duration) (*Gallery, error) {
	g := &Gallery{
		entries: make(map[string]models.GalleryEntry),
		ttl:     ttl,
		db:      db,
		bus:     bus,
	}

	if err := g.reload(ctx); err != nil {
		return nil, fmt.Errorf("initial gallery load: %w", err)
	}

	if bus != nil {
		unsub, err := bus.SubscribeInvalidate(g.invalidate)
		if err != nil {
			return nil, fmt.Errorf("subscribe gallery invalidation: %w", err)
		}
		g.unsubscribe = unsub
	}

	return g, nil
}

func (g *Gallery) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *Gallery) invalidate(personID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, personID)
	g.loadedAt = time.Time{} // force a full reload on next lookup
}

func (g *Gallery) reload(ctx context.Context) error {
	list, err := g.db.ListGallery(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string]models.GalleryEntry, len(list))
	for _, e := range list {
		fresh[e.PersonID] = e
	}

	g.mu.Lock()
	g.entries = fresh
	g.loadedAt = time.Now()
	g.mu.Unlock()
	return nil
}

func (g *Gallery) ensureFresh(ctx context.Context) {
	g.mu.RLock()
	stale := time.Since(g.loadedAt) >= g.ttl
	g.mu.RUnlock()
	if !stale {
		return
	}
	if err := g.reload(ctx); err != nil {
		slog.Warn("gallery reload failed, serving stale cache", "error", err)
	}
}

// Match finds the best gallery hit for embedding e. Ties are broken by
// lexicographic PersonId (spec §4.2 step 4).
func (g *Gallery) Match(ctx context.Context, e []float32, threshold float64) (personID string, similarity float32, found bool) {
	g.ensureFresh(ctx)

	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.entries))
	for id := range g.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	bestScore := float32(-2)
	bestID := ""
	for _, id := range ids {
		score := vision.CosineSimilarity(e, g.entries[id].Embedding)
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}

	if bestID == "" || bestScore < float32(threshold) {
		return "", 0, false
	}
	return bestID, bestScore, true
}

// CreatePerson handles the no-match path (spec §4.2 step 5): mints a new
// Unnamed_<hex8> id, persists it at count=1, and invalidates the cache.
func (g *Gallery) CreatePerson(ctx context.Context, e []float32) (string, error) {
	personID, err := newUnnamedID()
	if err != nil {
		return "", fmt.Errorf("generate person id: %w", err)
	}

	if err := g.db.InsertPerson(ctx, personID, e); err != nil {
		slog.Error("insert person failed, keeping in-session identity only", "person_id", personID, "error", err)
	}

	entry := models.GalleryEntry{PersonID: personID, Embedding: e, Count: 1, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	g.mu.Lock()
	g.entries[personID] = entry
	g.mu.Unlock()

	if g.bus != nil {
		_ = g.bus.PublishInvalidate(personID)
	}

	return personID, nil
}

// GetCached returns the cached entry for personID without forcing a
// refresh, used to seed a brand-new in-session running average.
func (g *Gallery) GetCached(personID string) (models.GalleryEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[personID]
	return e, ok
}

// PersistCentroid writes the final folded average for personID — the one
// write per departure spec §4.2 step 6 / §8 S3 allows.
func (g *Gallery) PersistCentroid(ctx context.Context, personID string, embedding []float32, count int) error {
	if err := g.db.UpdateCentroid(ctx, personID, embedding, count); err != nil {
		return err
	}

	entry := models.GalleryEntry{PersonID: personID, Embedding: embedding, Count: count, UpdatedAt: time.Now()}
	g.mu.Lock()
	g.entries[personID] = entry
	g.mu.Unlock()

	if g.bus != nil {
		_ = g.bus.PublishInvalidate(personID)
	}
	return nil
}

func newUnnamedID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return models.UnnamedPersonIDPrefix + hex.EncodeToString(buf), nil
}
