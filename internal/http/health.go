package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/tasks"
)

// HealthResponse reports the database connection, whether first-run setup
// is still pending, and whether background work goes through the task queue.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	tasks   *tasks.Client
	version string
}

// NewHealthController accepts a nil database or task client.
func NewHealthController(db *database.Database, taskClient *tasks.Client, version string) *HealthController {
	return &HealthController{db: db, tasks: taskClient, version: version}
}

// Status handles GET /health. Only a failing database makes the server
// unhealthy; a library without users still serves the setup endpoints.
func (h *HealthController) Status(c *gin.Context) {
	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": "not configured", "tasks": "disabled"},
	}
	if h.tasks != nil {
		resp.Checks["tasks"] = "enabled"
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "unhealthy"
			resp.Checks["database"] = "error: " + err.Error()
		} else {
			resp.Checks["database"] = "ok"
			resp.Checks["setup"] = h.setupState()
		}
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}

func (h *HealthController) setupState() string {
	hasUsers, err := h.db.HasUsers()
	switch {
	case err != nil:
		return "unknown"
	case hasUsers:
		return "complete"
	default:
		return "pending"
	}
}
