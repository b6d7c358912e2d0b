package api

import (
	"archive/zip"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/zsunny6658/clipforge/internal/apperr"
)

// GET /api/projects/:id/download?clip_id=...|collection_id=...
// With neither query param, streams a zip of every clip and collection
// artifact produced so far — grounded on the teacher's streamed-response
// pattern (c.DataFromReader) in material.go, adapted here to local files
// rather than a bucket object.
func (h *Handler) Download(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := h.Store.GetProject(projectID); err != nil {
		RespondAppErr(c, err)
		return
	}

	if clipID := c.Query("clip_id"); clipID != "" {
		h.downloadClip(c, projectID, clipID)
		return
	}
	if collID := c.Query("collection_id"); collID != "" {
		h.downloadCollection(c, projectID, collID)
		return
	}
	h.downloadArchive(c, projectID)
}

func (h *Handler) downloadClip(c *gin.Context, projectID, clipID string) {
	clips, err := h.Pipeline.ReadClips(projectID)
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	for _, entry := range clips.Clips {
		if entry.ID == clipID {
			serveFile(c, entry.Artifact.Path, clipID+".mp4")
			return
		}
	}
	RespondAppErr(c, apperr.NotFound("clip %q not found", clipID))
}

func (h *Handler) downloadCollection(c *gin.Context, projectID, collectionID string) {
	colls, err := h.Pipeline.ReadCollections(projectID)
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	for _, entry := range colls.Collections {
		if entry.ID == collectionID {
			if entry.Artifact.Path == "" {
				RespondAppErr(c, apperr.InvalidArgument("collection %q has not been generated yet", collectionID))
				return
			}
			serveFile(c, entry.Artifact.Path, collectionID+".mp4")
			return
		}
	}
	RespondAppErr(c, apperr.NotFound("collection %q not found", collectionID))
}

func serveFile(c *gin.Context, path, downloadName string) {
	if path == "" {
		RespondAppErr(c, apperr.InvalidArgument("artifact has not been generated yet"))
		return
	}
	if _, err := os.Stat(path); err != nil {
		RespondAppErr(c, apperr.NotFound("artifact file missing on disk: %s", path))
		return
	}
	c.FileAttachment(path, downloadName)
}

func (h *Handler) downloadArchive(c *gin.Context, projectID string) {
	clips, err := h.Pipeline.ReadClips(projectID)
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	colls, err := h.Pipeline.ReadCollections(projectID)
	if err != nil {
		RespondAppErr(c, err)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", "attachment; filename=\""+projectID+".zip\"")
	c.Status(http.StatusOK)

	zw := zip.NewWriter(c.Writer)
	defer zw.Close()

	for _, entry := range clips.Clips {
		addFileToZip(zw, entry.Artifact.Path, filepath.Join("clips", entry.ID+filepath.Ext(entry.Artifact.Path)))
	}
	for _, entry := range colls.Collections {
		addFileToZip(zw, entry.Artifact.Path, filepath.Join("collections", entry.ID+filepath.Ext(entry.Artifact.Path)))
	}
}

// addFileToZip best-effort copies path into the archive under name. Missing
// or not-yet-generated artifacts are skipped rather than failing the whole
// download.
func addFileToZip(zw *zip.Writer, path, name string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return
	}
	_, _ = io.Copy(w, f)
}
