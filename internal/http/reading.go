package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/services"
)

type ReadingController struct {
	tracker *services.ReadingTracker
}

func NewReadingController(tracker *services.ReadingTracker) *ReadingController {
	return &ReadingController{tracker: tracker}
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetStatus handles GET /api/books/:id/status
func (rc *ReadingController) GetStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	status, err := rc.tracker.Status(actor, id)
	if err != nil {
		respondServiceError(c, err, "get status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": id, "status": status})
}

// SetStatus handles PUT /api/books/:id/status
func (rc *ReadingController) SetStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status := entities.Status(req.Status)
	if err := rc.tracker.SetStatus(c.Request.Context(), actor, id, status); err != nil {
		respondServiceError(c, err, "set status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": id, "status": status})
}
