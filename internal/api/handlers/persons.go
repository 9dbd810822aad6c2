package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vxl-labs/glasscore/internal/models"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/vision"
	"github.com/vxl-labs/glasscore/pkg/dto"
)

const timeFormat = "2006-01-02T15:04:05Z"

type PersonHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
	bus   *queue.Bus
	// EmbedFn extracts a single face embedding from image bytes, set once
	// the vision pipeline is initialized. Returns an error if no face
	// clears the detection-confidence floor.
	EmbedFn func(imageData []byte) ([]float32, error)
}

func NewPersonHandler(db *storage.PostgresStore, minio *storage.MinIOStore, bus *queue.Bus) *PersonHandler {
	return &PersonHandler{db: db, minio: minio, bus: bus}
}

func (h *PersonHandler) List(c *gin.Context) {
	entries, err := h.db.ListGallery(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.PersonResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toPersonResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"persons": resp, "total": len(resp)})
}

func (h *PersonHandler) Get(c *gin.Context) {
	id := c.Param("id")
	entry, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, toPersonResponse(*entry))
}

// Update renames a person and/or replaces their socials blob. Renaming
// updates the PersonId primary key in place (spec §6's change_name op).
func (h *PersonHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil && *req.Name != id {
		if err := h.db.RenamePerson(c.Request.Context(), id, *req.Name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if h.bus != nil {
			_ = h.bus.PublishInvalidate(id)
			_ = h.bus.PublishInvalidate(*req.Name)
		}
		id = *req.Name
	}

	if req.Socials != nil {
		if !json.Valid([]byte(*req.Socials)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "socials must be valid JSON"})
			return
		}
		if err := h.db.UpdateSocials(c.Request.Context(), id, []byte(*req.Socials)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	entry, err := h.db.GetPerson(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, toPersonResponse(*entry))
}

// Search performs a face similarity search by uploading an image. The
// comparison runs in memory (spec §6: "the store performs no vector math").
func (h *PersonHandler) Search(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	if h.EmbedFn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vision pipeline not initialized"})
		return
	}

	embedding, err := h.EmbedFn(imageData)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to extract face: " + err.Error()})
		return
	}

	entries, err := h.db.ListGallery(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]dto.SearchResult, 0, len(entries))
	for _, e := range entries {
		score := vision.CosineSimilarity(embedding, e.Embedding)
		results = append(results, dto.SearchResult{PersonID: e.PersonID, Score: score})
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

func toPersonResponse(e models.GalleryEntry) dto.PersonResponse {
	return dto.PersonResponse{
		PersonID:  e.PersonID,
		Count:     e.Count,
		Recap:     e.Recap,
		Socials:   string(e.Socials),
		CreatedAt: e.CreatedAt.Format(timeFormat),
		UpdatedAt: e.UpdatedAt.Format(timeFormat),
	}
}
