package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/services"
)

// DeletionHook is told how many books were removed, so orphaned tags can
// be cleaned up.
type DeletionHook interface {
	BooksDeleted(count int)
}

type BooksController struct {
	books    *services.BookService
	reading  *services.ReadingTracker
	audit    *audit.Service
	onDelete DeletionHook
}

func NewBooksController(bookService *services.BookService, reading *services.ReadingTracker, auditService *audit.Service, onDelete DeletionHook) *BooksController {
	return &BooksController{
		books:    bookService,
		reading:  reading,
		audit:    auditService,
		onDelete: onDelete,
	}
}

// IDsRequest selects books for bulk operations.
type IDsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

type BulkCategoryRequest struct {
	IDs        []uint `json:"ids" binding:"required,min=1"`
	CategoryID uint   `json:"category_id" binding:"required"`
}

// BulkLocationRequest moves books; a null location_id clears it.
type BulkLocationRequest struct {
	IDs        []uint `json:"ids" binding:"required,min=1"`
	LocationID *uint  `json:"location_id"`
}

type BulkStatusRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Status string `json:"status" binding:"required"`
}

// List handles GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	categoryID, noCategory, ok := parseOptionalQueryID(c, "categoryId")
	if !ok {
		return
	}
	locationID, noLocation, ok := parseOptionalQueryID(c, "locationId")
	if !ok {
		return
	}

	filter := books.Filter{
		CategoryID: categoryID,
		NoCategory: noCategory,
		LocationID: locationID,
		NoLocation: noLocation,
		Query:      strings.TrimSpace(c.Query("q")),
		Sort:       c.Query("sort"),
	}
	if status := c.Query("status"); status != "" && status != "All" {
		filter.Status = entities.Status(status)
	}

	list, err := bc.books.List(filter)
	if err != nil {
		respondServiceError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// Get handles GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.books.Get(id)
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Create handles POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var in services.BookInput
	if !bindJSON(c, &in) {
		return
	}
	book, err := bc.books.Create(c.Request.Context(), actor, in)
	if err != nil {
		respondServiceError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// Update handles PUT /api/books/:id
func (bc *BooksController) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.BookInput
	if !bindJSON(c, &in) {
		return
	}
	book, err := bc.books.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		respondServiceError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.books.Get(id)
	if err != nil {
		respondServiceError(c, err, "delete book")
		return
	}
	if _, err := bc.books.Delete(c.Request.Context(), []uint{id}); err != nil {
		respondServiceError(c, err, "delete book")
		return
	}
	bc.afterDelete(actor, []entities.Book{*book})
	respondSuccess(c, "Book deleted")
}

// BulkDelete handles POST /api/books/bulk/delete
func (bc *BooksController) BulkDelete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req IDsRequest
	if !bindJSON(c, &req) {
		return
	}
	doomed, err := bc.books.GetByIDs(req.IDs)
	if err != nil {
		respondServiceError(c, err, "bulk delete")
		return
	}
	deleted, err := bc.books.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		respondServiceError(c, err, "bulk delete")
		return
	}
	bc.afterDelete(actor, doomed)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (bc *BooksController) afterDelete(actor services.Actor, deleted []entities.Book) {
	if bc.audit != nil {
		for _, b := range deleted {
			bc.audit.LogDelete(actor.UserID, "book", b.ID, b.Title)
		}
	}
	if bc.onDelete != nil && len(deleted) > 0 {
		bc.onDelete.BooksDeleted(len(deleted))
	}
}

// BulkCategory handles POST /api/books/bulk/category
func (bc *BooksController) BulkCategory(c *gin.Context) {
	var req BulkCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := bc.books.AssignCategory(c.Request.Context(), req.IDs, req.CategoryID); err != nil {
		respondServiceError(c, err, "bulk category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(req.IDs)})
}

// BulkLocation handles POST /api/books/bulk/location
func (bc *BooksController) BulkLocation(c *gin.Context) {
	var req BulkLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := bc.books.AssignLocation(c.Request.Context(), req.IDs, req.LocationID)
	if err != nil {
		respondServiceError(c, err, "bulk location")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// BulkStatus handles POST /api/books/bulk/status
func (bc *BooksController) BulkStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req BulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	err := bc.reading.BulkSetStatus(c.Request.Context(), actor, req.IDs, entities.Status(req.Status))
	if err != nil {
		respondServiceError(c, err, "bulk status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(req.IDs)})
}

// CheckISBN handles GET /api/books/isbn/:isbn
func (bc *BooksController) CheckISBN(c *gin.Context) {
	check, err := bc.books.CheckISBN(c.Param("isbn"))
	if err != nil {
		respondServiceError(c, err, "check isbn")
		return
	}
	c.JSON(http.StatusOK, check)
}

// ByIDs handles POST /api/books/by-ids
func (bc *BooksController) ByIDs(c *gin.Context) {
	var req IDsRequest
	if !bindJSON(c, &req) {
		return
	}
	list, err := bc.books.GetByIDs(req.IDs)
	if err != nil {
		respondServiceError(c, err, "books by ids")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// Languages handles GET /api/books/languages
func (bc *BooksController) Languages(c *gin.Context) {
	langs, err := bc.books.Languages()
	if err != nil {
		respondServiceError(c, err, "languages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": langs})
}

// Mine handles GET /api/books/mine
func (bc *BooksController) Mine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	list, err := bc.books.MyBooks(actor, c.Query("status"), strings.TrimSpace(c.Query("q")))
	if err != nil {
		respondServiceError(c, err, "my books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// Suggestion handles GET /api/books/suggestion
func (bc *BooksController) Suggestion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	categoryID, _, ok := parseOptionalQueryID(c, "categoryId")
	if !ok {
		return
	}
	length := books.Length(c.Query("length"))
	switch length {
	case books.LengthAny, books.LengthShort, books.LengthMedium, books.LengthLong:
	default:
		respondBadRequest(c, "invalid length")
		return
	}

	book, err := bc.books.Suggest(actor, books.SuggestionFilter{
		CategoryID: categoryID,
		Length:     length,
		Language:   c.Query("language"),
	})
	if err != nil {
		respondServiceError(c, err, "suggestion")
		return
	}
	if book == nil {
		respondNotFound(c, "No matching book")
		return
	}
	c.JSON(http.StatusOK, book)
}
