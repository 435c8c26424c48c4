package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/database/tags"
	"github.com/mrlokans/biblion/internal/entities"
)

type TagsController struct {
	repo *tags.Repository
}

func NewTagsController(repo *tags.Repository) *TagsController {
	return &TagsController{repo: repo}
}

// List handles GET /api/tags?q=
func (tc *TagsController) List(c *gin.Context) {
	var (
		list []entities.Tag
		err  error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		list, err = tc.repo.SearchTags(q)
	} else {
		list, err = tc.repo.ListTags()
	}
	if err != nil {
		respondInternalError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": list})
}
