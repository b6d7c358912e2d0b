package api

import (
	"bufio"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/config"
)

// GET /api/projects
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Store.ListProjects()
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

// GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	proj, err := h.Store.GetProject(c.Param("id"))
	if err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondOK(c, proj)
}

// DELETE /api/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetProject(id); err != nil {
		RespondAppErr(c, err)
		return
	}
	// Store.DeleteProject runs the full cascade (workdir, thumbnail cache,
	// scheduler status, index entry, in that order, each best-effort); the
	// scheduler eviction step is threaded through as a callback since the
	// store itself has no reference to the scheduler.
	if err := h.Store.DeleteProject(id, func() { h.Scheduler.Cancel(id) }); err != nil {
		h.Log.Warn("delete project: cascade had partial failures", "project_id", id, "error", err)
	}
	c.Status(http.StatusNoContent)
}

// POST /api/upload (multipart: video_file, optional srt_file, project_name,
// video_category) — creates a project and immediately admits a pipeline run.
func (h *Handler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(1 << 30); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	videoFile, videoHeader, err := c.Request.FormFile("video_file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "video_file_required", err)
		return
	}
	defer videoFile.Close()
	_ = videoHeader

	name := strings.TrimSpace(c.Request.FormValue("project_name"))
	if name == "" {
		name = "untitled project"
	}
	category, err := config.NormalizeCategory(strings.TrimSpace(c.Request.FormValue("video_category")))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_video_category", err)
		return
	}

	id := uuid.NewString()
	proj, err := h.Store.CreateProject(id, name, string(category))
	if err != nil {
		RespondAppErr(c, err)
		return
	}

	layout := h.Store.Layout(id)
	if err := writeUploadedFile(videoFile, layout.InputVideo()); err != nil {
		h.rollbackUpload(id)
		RespondError(c, http.StatusInternalServerError, "save_video_failed", err)
		return
	}

	if srtFile, _, err := c.Request.FormFile("srt_file"); err == nil {
		defer srtFile.Close()
		if err := writeUploadedFile(srtFile, layout.InputSubtitles()); err != nil {
			h.rollbackUpload(id)
			RespondError(c, http.StatusInternalServerError, "save_subtitles_failed", err)
			return
		}
	} else {
		h.rollbackUpload(id)
		RespondError(c, http.StatusUnprocessableEntity, string(apperr.KindSubtitlesMissing), apperr.SubtitlesMissing(nil, "no srt_file supplied with upload"))
		return
	}

	// Scheduler admission happens last: on SystemBusy (or any other
	// rejection) the upload must leave no trace (spec.md §6 Admission,
	// scenario 5), so a just-created project row and its uploaded files are
	// rolled back rather than left orphaned in projects.json.
	if err := h.Scheduler.Start(id); err != nil {
		h.rollbackUpload(id)
		RespondAppErr(c, err)
		return
	}
	RespondAccepted(c, proj)
}

// rollbackUpload undoes CreateProject and any uploaded files for a project
// that never became an admitted pipeline run. There is no scheduler status
// to evict yet, since Start/admit never succeeded for id.
func (h *Handler) rollbackUpload(id string) {
	if err := h.Store.DeleteProject(id, nil); err != nil {
		h.Log.Warn("upload: rollback after failed admission left residue", "project_id", id, "error", err)
	}
}

func writeUploadedFile(src io.Reader, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, src)
	return err
}

// POST /api/projects/:id/process
func (h *Handler) Process(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetProject(id); err != nil {
		RespondAppErr(c, err)
		return
	}
	if err := h.Scheduler.Start(id); err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondAccepted(c, gin.H{"project_id": id})
}

// POST /api/projects/:id/retry
func (h *Handler) Retry(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetProject(id); err != nil {
		RespondAppErr(c, err)
		return
	}
	if err := h.Scheduler.Retry(id); err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondAccepted(c, gin.H{"project_id": id})
}

type restartStepRequest struct {
	Step int `json:"step" binding:"required"`
}

// POST /api/projects/:id/restart-step {step}
func (h *Handler) RestartStep(c *gin.Context) {
	id := c.Param("id")
	var req restartStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if _, err := h.Store.GetProject(id); err != nil {
		RespondAppErr(c, err)
		return
	}
	if err := h.Scheduler.Resume(id, req.Step); err != nil {
		RespondAppErr(c, err)
		return
	}
	RespondAccepted(c, gin.H{"project_id": id, "step": req.Step})
}

// GET /api/projects/:id/status
func (h *Handler) Status(c *gin.Context) {
	id := c.Param("id")
	proj, err := h.Store.GetProject(id)
	if err != nil {
		RespondAppErr(c, err)
		return
	}

	resp := gin.H{
		"status":       proj.Status,
		"current_step": proj.CurrentStep,
		"total_steps":  proj.TotalSteps,
	}
	if proj.ErrorMessage != "" {
		resp["error_message"] = proj.ErrorMessage
	}
	if st, ok := h.Scheduler.Status(id); ok {
		resp["step_name"] = st.StageName
		resp["progress"] = st.Percent
	}
	RespondOK(c, resp)
}

// GET /api/projects/:id/logs?lines=N
func (h *Handler) Logs(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Store.GetProject(id); err != nil {
		RespondAppErr(c, err)
		return
	}

	n := 100
	if raw := c.Query("lines"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}

	lines, err := tailFile(h.Scheduler.LogPath(id), n)
	if err != nil && !os.IsNotExist(err) {
		RespondError(c, http.StatusInternalServerError, "read_log_failed", err)
		return
	}
	RespondOK(c, gin.H{"lines": lines})
}

// tailFile returns at most the last n lines of path. It reads the whole
// file, which is acceptable for a single project's pipeline log (bounded by
// one run's stage count), not an arbitrarily large server log.
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		all = append(all, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
