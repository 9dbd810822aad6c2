package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/pkg/dto"
)

type TodoHandler struct {
	db *storage.PostgresStore
}

func NewTodoHandler(db *storage.PostgresStore) *TodoHandler {
	return &TodoHandler{db: db}
}

func (h *TodoHandler) List(c *gin.Context) {
	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
		return
	}

	todos, err := h.db.ListTodos(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.TodoResponse, 0, len(todos))
	for _, t := range todos {
		r := dto.TodoResponse{
			ID:             t.ID,
			Description:    t.Description,
			Status:         t.Status,
			PersonID:       t.PersonID,
			ConversationID: t.ConversationID,
			CreatedAt:      t.CreatedAt.Format(timeFormat),
		}
		if t.CompletedAt != nil {
			completed := t.CompletedAt.Format(timeFormat)
			r.CompletedAt = &completed
		}
		resp = append(resp, r)
	}
	c.JSON(http.StatusOK, gin.H{"todos": resp, "total": len(resp)})
}

func (h *TodoHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	if err := h.db.CompleteTodo(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *TodoHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.db.DeleteTodo(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
