package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/metadata"
)

// lookupTimeout bounds a whole lookup, including the fallback source.
const lookupTimeout = 20 * time.Second

type LookupController struct {
	lookup *metadata.Lookup
}

func NewLookupController(lookup *metadata.Lookup) *LookupController {
	return &LookupController{lookup: lookup}
}

// ISBN handles GET /api/lookup/isbn/:isbn
// Upstream failures degrade to 404 so the client falls back to manual entry.
func (lc *LookupController) ISBN(c *gin.Context) {
	isbn := strings.TrimSpace(c.Param("isbn"))
	if metadata.CleanISBN(isbn) == "" {
		respondBadRequest(c, "ISBN is required")
		return
	}

	if lc.lookup == nil {
		respondNotFound(c, "Book")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
	defer cancel()

	record, ok := lc.lookup.ISBN(ctx, isbn)
	if !ok {
		respondNotFound(c, "Book")
		return
	}
	c.JSON(http.StatusOK, record)
}
