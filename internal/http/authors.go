package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/services"
)

type AuthorsController struct {
	authors *services.AuthorService
}

func NewAuthorsController(authors *services.AuthorService) *AuthorsController {
	return &AuthorsController{authors: authors}
}

type AuthorUpdateRequest struct {
	Gender string `json:"gender"`
}

// List handles GET /api/authors
func (ac *AuthorsController) List(c *gin.Context) {
	list, err := ac.authors.List(strings.TrimSpace(c.Query("q")))
	if err != nil {
		respondServiceError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": list, "count": len(list)})
}

// Get handles GET /api/authors/:id
func (ac *AuthorsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	author, err := ac.authors.Get(id)
	if err != nil {
		respondServiceError(c, err, "get author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// Update handles PUT /api/authors/:id
func (ac *AuthorsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AuthorUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	author, err := ac.authors.UpdateGender(id, req.Gender)
	if err != nil {
		respondServiceError(c, err, "update author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// RequestBiography handles POST /api/authors/:id/biography
func (ac *AuthorsController) RequestBiography(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.authors.RequestBiography(id); err != nil {
		respondServiceError(c, err, "request biography")
		return
	}
	respondAccepted(c, "Biography fetch scheduled", gin.H{"author_id": id})
}

// RefreshBiographies handles POST /api/authors/biographies/refresh
func (ac *AuthorsController) RefreshBiographies(c *gin.Context) {
	count, err := ac.authors.RequestMissingBiographies()
	if err != nil {
		respondServiceError(c, err, "refresh biographies")
		return
	}
	respondAccepted(c, "Biography fetches scheduled", gin.H{"scheduled": count})
}
