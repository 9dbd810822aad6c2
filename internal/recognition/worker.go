package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/models"
	"github.com/vxl-labs/glasscore/internal/observability"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/vision"
)

// sessionAverage is the Recognition Worker's private, in-memory running
// average for one person (spec §3 Ownership: "Exactly one Recognition
// Worker owns ... the in-session running averages").
type sessionAverage struct {
	embedding []float32
	count     int
}

// Worker is the Recognition Worker (component B): decode -> detect ->
// embed -> gallery match -> fold, one frame at a time, single-threaded.
type Worker struct {
	detector *vision.Detector
	embedder *vision.Embedder
	gallery  *Gallery
	minio    *storage.MinIOStore

	visionCfg config.VisionConfig
	matchCfg  config.RecognitionConfig

	mu      sync.Mutex
	session map[string]*sessionAverage
}

func NewWorker(ctx context.Context, visionCfg config.VisionConfig, matchCfg config.RecognitionConfig, db *storage.PostgresStore, minio *storage.MinIOStore, bus *queue.Bus) (*Worker, error) {
	detPath := filepath.Join(visionCfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(visionCfg.ModelsDir, "w600k_r50.onnx")

	newSessionOptions := func() (*ort.SessionOptions, error) {
		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("create session options: %w", err)
		}
		if visionCfg.IntraOpThreads > 0 {
			if err := opts.SetIntraOpNumThreads(visionCfg.IntraOpThreads); err != nil {
				opts.Destroy()
				return nil, fmt.Errorf("set intra_op_threads: %w", err)
			}
		}
		if visionCfg.InterOpThreads > 0 {
			if err := opts.SetInterOpNumThreads(visionCfg.InterOpThreads); err != nil {
				opts.Destroy()
				return nil, fmt.Errorf("set inter_op_threads: %w", err)
			}
		}
		return opts, nil
	}

	slog.Info("loading detection model", "path", detPath)
	detOpts, err := newSessionOptions()
	if err != nil {
		return nil, err
	}
	det, err := vision.NewDetector(detPath, float32(visionCfg.DetectionThreshold), detOpts)
	detOpts.Destroy()
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := vision.NewEmbedder(embPath)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	gallery, err := NewGallery(ctx, db, bus, matchCfg.GalleryTTL)
	if err != nil {
		det.Close()
		emb.Close()
		return nil, fmt.Errorf("load gallery: %w", err)
	}

	return &Worker{
		detector:  det,
		embedder:  emb,
		gallery:   gallery,
		minio:     minio,
		visionCfg: visionCfg,
		matchCfg:  matchCfg,
		session:   make(map[string]*sessionAverage),
	}, nil
}

func (w *Worker) Close() {
	w.gallery.Close()
	w.detector.Close()
	w.embedder.Close()
}

// ProcessFrame implements spec §4.2 steps 1-6 for a single JPEG payload.
func (w *Worker) ProcessFrame(ctx context.Context, jpegData []byte) models.PersonObservation {
	now := time.Now()

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return models.PersonObservation{Timestamp: now}
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	start := time.Now()
	detInputW, detInputH := w.detector.InputSize()
	detInput := vision.PreprocessForDetection(img, detInputW, detInputH)
	detections, err := w.detector.Detect(detInput, origW, origH)
	observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("detect error", "error", err)
		return models.PersonObservation{Timestamp: now}
	}
	if len(detections) == 0 {
		return models.PersonObservation{Timestamp: now}
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	observability.FacesDetected.Inc()

	crop := vision.CropFace(img, best.BBox)
	if crop == nil {
		return models.PersonObservation{Timestamp: now}
	}

	start = time.Now()
	embW, embH := w.embedder.InputSize()
	embInput := vision.PreprocessForEmbedding(crop, embW, embH)
	embedding, err := w.embedder.Extract(embInput)
	observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("embed error", "error", err)
		return models.PersonObservation{Timestamp: now}
	}
	if len(embedding) != w.embedder.EmbeddingDim() {
		slog.Error("embedder returned unexpected dimension", "got", len(embedding), "want", w.embedder.EmbeddingDim())
		return models.PersonObservation{Timestamp: now}
	}

	start = time.Now()
	personID, similarity, found := w.gallery.Match(ctx, embedding, w.matchCfg.MatchThreshold)
	observability.InferenceDuration.WithLabelValues("match").Observe(time.Since(start).Seconds())

	if !found {
		personID, err = w.gallery.CreatePerson(ctx, embedding)
		if err != nil {
			slog.Error("create person failed", "error", err)
			return models.PersonObservation{Timestamp: now}
		}
		observability.GalleryInserts.Inc()
		w.seedSession(personID, embedding, 1)
		similarity = 1.0
	} else {
		w.foldSession(personID, embedding)
	}

	w.saveSnapshot(ctx, personID, crop)

	return models.PersonObservation{PersonID: personID, Similarity: similarity, Timestamp: now}
}

func (w *Worker) seedSession(personID string, e []float32, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session[personID] = &sessionAverage{embedding: append([]float32(nil), e...), count: count}
}

// foldSession implements the running-average fold of spec §4.2 step 6.
func (w *Worker) foldSession(personID string, e []float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	avg, ok := w.session[personID]
	if !ok {
		count := 1
		base := e
		if cached, ok2 := w.gallery.GetCached(personID); ok2 {
			count = cached.Count
			base = cached.Embedding
		}
		avg = &sessionAverage{embedding: append([]float32(nil), base...), count: count}
		w.session[personID] = avg
	}

	folded := make([]float32, len(avg.embedding))
	for i := range avg.embedding {
		folded[i] = (avg.embedding[i]*float32(avg.count) + e[i]) / float32(avg.count+1)
	}
	avg.embedding = folded
	avg.count++
}

// FinalizeDeparture performs the single final-fold write for personID,
// called when the Switch Detector reports personID is leaving (spec §4.2
// step 6, §8 property 3). A no-op if personID was never seen this session.
func (w *Worker) FinalizeDeparture(ctx context.Context, personID string) {
	if personID == "" {
		return
	}

	w.mu.Lock()
	avg, ok := w.session[personID]
	if ok {
		delete(w.session, personID)
	}
	w.mu.Unlock()

	if !ok {
		return
	}

	if err := w.gallery.PersistCentroid(ctx, personID, avg.embedding, avg.count); err != nil {
		slog.Error("final centroid write failed", "person_id", personID, "error", err)
	}
}

func (w *Worker) saveSnapshot(ctx context.Context, personID string, crop image.Image) {
	snapshot := vision.UpscaleFace(crop, 100)
	data := vision.EncodeJPEG(snapshot, 90)
	if err := w.minio.PutObject(ctx, storage.FaceCropKey(personID), data, "image/jpeg"); err != nil {
		slog.Warn("save face snapshot failed", "person_id", personID, "error", err)
	}
}
