package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/services"
)

// ParentRequest moves a node; a null parent_id makes it a root.
type ParentRequest struct {
	ParentID *uint `json:"parent_id"`
}

type CategoriesController struct {
	categories *services.CategoryService
	audit      *audit.Service
}

func NewCategoriesController(categories *services.CategoryService, auditService *audit.Service) *CategoriesController {
	return &CategoriesController{categories: categories, audit: auditService}
}

// Tree handles GET /api/categories
func (cc *CategoriesController) Tree(c *gin.Context) {
	tree, err := cc.categories.Tree()
	if err != nil {
		respondServiceError(c, err, "category tree")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

// Create handles POST /api/categories
func (cc *CategoriesController) Create(c *gin.Context) {
	var in services.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := cc.categories.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	respondCreated(c, category)
}

// Update handles PUT /api/categories/:id
func (cc *CategoriesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := cc.categories.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Move handles PUT /api/categories/:id/parent
func (cc *CategoriesController) Move(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ParentRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := cc.categories.Move(c.Request.Context(), id, req.ParentID)
	if err != nil {
		respondServiceError(c, err, "move category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete handles DELETE /api/categories/:id
func (cc *CategoriesController) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.categories.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete category")
		return
	}
	if cc.audit != nil {
		cc.audit.LogDelete(actor.UserID, "category", id, fmt.Sprintf("#%d", id))
	}
	respondSuccess(c, "Category deleted")
}

type LocationsController struct {
	locations *services.LocationService
	audit     *audit.Service
}

func NewLocationsController(locations *services.LocationService, auditService *audit.Service) *LocationsController {
	return &LocationsController{locations: locations, audit: auditService}
}

// Tree handles GET /api/locations
func (lc *LocationsController) Tree(c *gin.Context) {
	tree, err := lc.locations.Tree()
	if err != nil {
		respondServiceError(c, err, "location tree")
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": tree})
}

// Create handles POST /api/locations
func (lc *LocationsController) Create(c *gin.Context) {
	var in services.LocationInput
	if !bindJSON(c, &in) {
		return
	}
	location, err := lc.locations.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create location")
		return
	}
	respondCreated(c, location)
}

// Update handles PUT /api/locations/:id
func (lc *LocationsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.LocationInput
	if !bindJSON(c, &in) {
		return
	}
	location, err := lc.locations.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err, "update location")
		return
	}
	c.JSON(http.StatusOK, location)
}

// Move handles PUT /api/locations/:id/parent
func (lc *LocationsController) Move(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ParentRequest
	if !bindJSON(c, &req) {
		return
	}
	location, err := lc.locations.Move(c.Request.Context(), id, req.ParentID)
	if err != nil {
		respondServiceError(c, err, "move location")
		return
	}
	c.JSON(http.StatusOK, location)
}

// Delete handles DELETE /api/locations/:id
func (lc *LocationsController) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := lc.locations.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete location")
		return
	}
	if lc.audit != nil {
		lc.audit.LogDelete(actor.UserID, "location", id, fmt.Sprintf("#%d", id))
	}
	respondSuccess(c, "Location deleted")
}
