package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateBackup writes a snapshot of all clients and invoices to a
// local backup file.
func (s *Server) CreateBackup(c *gin.Context) {
	metadata, err := s.backupSvc.Create(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": metadata})
}

func (s *Server) ListBackups(c *gin.Context) {
	backups, err := s.backupSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": backups})
}

type restoreBackupRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) RestoreBackup(c *gin.Context) {
	var req restoreBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.backupSvc.Restore(c.Request.Context(), req.Filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) DeleteBackup(c *gin.Context) {
	if err := s.backupSvc.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DownloadBackup(c *gin.Context) {
	filename := c.Param("filename")
	path, err := s.backupSvc.FilePath(filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.FileAttachment(path, filename)
}

// ExportData returns the full snapshot inline, without touching the
// backup directory.
func (s *Server) ExportData(c *gin.Context) {
	snapshot, err := s.backupSvc.Export(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}
