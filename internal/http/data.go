package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/exporters"
	"github.com/mrlokans/biblion/internal/importers"
)

// MaxImportSize bounds uploaded import files.
const MaxImportSize = 32 << 20

// DataController handles the JSON backup and CSV import/export endpoints.
type DataController struct {
	books    *books.Repository
	pipeline *importers.Pipeline
	audit    *audit.Service
	now      func() time.Time
}

func NewDataController(db *gorm.DB, auditService *audit.Service) *DataController {
	return &DataController{
		books:    books.NewRepository(db),
		pipeline: importers.NewPipeline(db),
		audit:    auditService,
		now:      time.Now,
	}
}

// ExportJSON handles GET /api/export/json
func (dc *DataController) ExportJSON(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := dc.books.ForExport()
	if err != nil {
		dc.logExport(user.ID, "json", "JSON export failed", err)
		respondInternalError(c, err, "export json")
		return
	}

	now := dc.now()
	var buf bytes.Buffer
	if err := exporters.WriteJSON(&buf, exporters.NewBackup(list, user.Email, now)); err != nil {
		dc.logExport(user.ID, "json", "JSON export failed", err)
		respondInternalError(c, err, "encode json export")
		return
	}

	dc.logExport(user.ID, "json", fmt.Sprintf("Exported %d books", len(list)), nil)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporters.JSONFilename(now)))
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// ExportCSV handles GET /api/export/csv
func (dc *DataController) ExportCSV(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := dc.books.ForExport()
	if err != nil {
		dc.logExport(user.ID, "csv", "CSV export failed", err)
		respondInternalError(c, err, "export csv")
		return
	}

	var buf bytes.Buffer
	if err := exporters.WriteCSV(&buf, list, user.ID); err != nil {
		dc.logExport(user.ID, "csv", "CSV export failed", err)
		respondInternalError(c, err, "encode csv export")
		return
	}

	dc.logExport(user.ID, "csv", fmt.Sprintf("Exported %d books", len(list)), nil)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporters.CSVFilename(dc.now())))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportJSON handles POST /api/import/json
func (dc *DataController) ImportJSON(c *gin.Context) {
	dc.importWith(c, "json", func(data []byte) importers.Converter {
		return importers.NewJSONConverter(data)
	})
}

// ImportCSV handles POST /api/import/csv
func (dc *DataController) ImportCSV(c *gin.Context) {
	dc.importWith(c, "csv", func(data []byte) importers.Converter {
		return importers.NewCSVConverter(data)
	})
}

func (dc *DataController) importWith(c *gin.Context, format string, newConverter func([]byte) importers.Converter) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	data, err := readUpload(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	stats, err := dc.pipeline.Import(c.Request.Context(), newConverter(data), user.ID)
	if err != nil {
		dc.logImport(user.ID, format, "Import failed", nil, err)
		respondBadRequest(c, fmt.Sprintf("Invalid %s file: %v", strings.ToUpper(format), err))
		return
	}

	dc.logImport(user.ID, format, fmt.Sprintf("Imported %d of %d records", stats.Created+stats.Updated, stats.Total), map[string]int{
		"total":   stats.Total,
		"created": stats.Created,
		"updated": stats.Updated,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}, nil)
	c.JSON(http.StatusOK, stats)
}

// readUpload returns the multipart "file" field if present, the raw body
// otherwise.
func readUpload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImportSize)

	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	return data, nil
}

func (dc *DataController) logExport(userID uint, format, description string, err error) {
	if dc.audit != nil {
		dc.audit.LogExport(userID, format, description, err)
	}
}

func (dc *DataController) logImport(userID uint, format, description string, counts map[string]int, err error) {
	if dc.audit != nil {
		dc.audit.LogImport(userID, format, description, counts, err)
	}
}
