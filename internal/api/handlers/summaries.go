package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/pkg/dto"
)

type SummaryHandler struct {
	db *storage.PostgresStore
}

func NewSummaryHandler(db *storage.PostgresStore) *SummaryHandler {
	return &SummaryHandler{db: db}
}

// List returns a person's summaries, most recent first (spec §4.4 step 4).
func (h *SummaryHandler) List(c *gin.Context) {
	personID := c.Param("id")

	summaries, err := h.db.ListSummaries(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, dto.SummaryResponse{
			ID:        s.ID,
			PersonID:  s.PersonID,
			Text:      s.Text,
			CreatedAt: s.CreatedAt.Format(timeFormat),
		})
	}
	c.JSON(http.StatusOK, gin.H{"summaries": resp, "total": len(resp)})
}
