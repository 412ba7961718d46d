package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egorairo/ShelfSense/sales"
)

const (
	salesFormField = "file"
	maxSalesUpload = 5 << 20
)

// ParseSales accepts a multipart CSV upload and returns the parsed records.
// Any malformed row rejects the whole file.
func (s *Server) ParseSales(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSalesUpload)

	header, err := c.FormFile(salesFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file", "message": "upload a CSV in the \"file\" form field"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "message": err.Error()})
		return
	}
	defer f.Close()

	records, err := sales.ParseCSV(f)
	if err != nil {
		slog.Warn("SERVER: Sales CSV rejected", "file", header.Filename, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sales CSV", "message": err.Error()})
		return
	}

	slog.Info("SERVER: Sales CSV parsed", "file", header.Filename, "records", len(records))
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
