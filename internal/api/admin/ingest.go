// ingest.go accepts Markdown knowledge documents for the statute corpus.
package admin

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policy-auditor/policy-auditor/internal/api/respond"
	"github.com/policy-auditor/policy-auditor/internal/services"
	"github.com/policy-auditor/policy-auditor/internal/validation"
)

const multipartOverhead = 1 << 20

// MarkdownIngester chunks, embeds and stores one Markdown document
type MarkdownIngester interface {
	IngestMarkdown(ctx context.Context, filename string, data []byte) (*services.IngestResult, error)
}

// IngestHandlers handles knowledge ingestion endpoints
type IngestHandlers struct {
	ingester MarkdownIngester
	maxBytes int64
}

// NewIngestHandlers creates a new IngestHandlers instance
func NewIngestHandlers(ingester MarkdownIngester, maxBytes int64) *IngestHandlers {
	return &IngestHandlers{ingester: ingester, maxBytes: maxBytes}
}

// @Summary      Ingest Markdown
// @Description  Chunks a Markdown document, embeds each chunk and appends it to the knowledge corpus. Chunks whose embedding fails are skipped.
// @Tags         Knowledge
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Markdown document (.md)"
// @Success      200  {object}  services.IngestResult
// @Failure      400  {object}  map[string]interface{}  "Missing or invalid file"
// @Failure      429  {object}  map[string]interface{}  "Embedding provider rate limited"
// @Router       /admin/ingest-md [post]
// IngestMarkdownHandler ingests an uploaded Markdown file
// POST /admin/ingest-md
func (h *IngestHandlers) IngestMarkdownHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded. Send the document in the 'file' form field."})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		result, err := h.ingester.IngestMarkdown(c.Request.Context(), validation.SanitizeFilename(fileHeader.Filename), data)
		if err != nil {
			respond.Error(c, err, respond.Messages{Internal: "Failed to ingest document"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
