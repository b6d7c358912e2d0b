package api

import (
	"github.com/zsunny6658/clipforge/internal/downloader"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/pipeline"
	"github.com/zsunny6658/clipforge/internal/project"
	"github.com/zsunny6658/clipforge/internal/scheduler"
)

// Handler wires ProjectStore, Pipeline (for post-stage-6 metadata edits),
// TaskScheduler (for admission/status), and Downloader behind the HTTP
// surface from spec.md §6.
type Handler struct {
	Store      *project.Store
	Pipeline   *pipeline.Pipeline
	Scheduler  *scheduler.Scheduler
	Downloader downloader.Downloader
	Log        *logger.Logger
}

func NewHandler(store *project.Store, p *pipeline.Pipeline, sched *scheduler.Scheduler, dl downloader.Downloader, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{Store: store, Pipeline: p, Scheduler: sched, Downloader: dl, Log: log}
}
