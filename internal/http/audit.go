package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	auditrepo "github.com/mrlokans/biblion/internal/database/audit"
	"github.com/mrlokans/biblion/internal/entities"
)

const maxAuditPageSize = 200

type AuditController struct {
	audit *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{audit: auditService}
}

// Events handles GET /api/admin/audit?user_id=&type=&limit=&offset=
func (ac *AuditController) Events(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	userID, _, ok := parseOptionalQueryID(c, "user_id")
	if !ok {
		return
	}

	q := auditrepo.Query{
		EventType: entities.AuditEventType(c.Query("type")),
		Limit:     limit,
		Offset:    offset,
	}
	if userID != nil {
		q.UserID = *userID
	}

	events, total, err := ac.audit.GetEvents(q)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
