// Command clipforge runs the ApiFacade HTTP server and, optionally, a
// one-shot local CLI mode for driving a single project without the HTTP
// surface (spec.md §6: "CLI surface (optional)").
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/zsunny6658/clipforge/internal/api"
	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/config"
	"github.com/zsunny6658/clipforge/internal/downloader"
	"github.com/zsunny6658/clipforge/internal/llm"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/pipeline"
	"github.com/zsunny6658/clipforge/internal/project"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/scheduler"
	"github.com/zsunny6658/clipforge/internal/transcode"
)

func main() {
	videoPath := flag.String("video", "", "path to a local input video (CLI mode)")
	srtPath := flag.String("srt", "", "path to a local input subtitle file (CLI mode)")
	projectName := flag.String("project-name", "", "display name for a new CLI-mode project")
	projectID := flag.String("project-id", "", "existing project id to resume/restart (CLI mode)")
	step := flag.Int("step", 0, "restart processing from this stage (1-6, CLI mode)")
	listProjects := flag.Bool("list-projects", false, "print every known project and exit")
	deleteProject := flag.String("delete-project", "", "delete the named project and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "clipforge: load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clipforge: init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := project.NewStore(cfg.ProjectRoot, clock.Real)
	if err != nil {
		log.Error("clipforge: open project store", "error", err)
		os.Exit(1)
	}

	switch {
	case *listProjects:
		runListProjects(store, log)
		return
	case *deleteProject != "":
		runDeleteProject(store, *deleteProject, log)
		return
	}

	prompts, err := prompt.Load("")
	if err != nil {
		log.Error("clipforge: load prompt library", "error", err)
		os.Exit(1)
	}

	provider, err := llm.NewProviderFromConfig(cfg)
	if err != nil {
		log.Error("clipforge: construct llm provider", "error", err)
		os.Exit(1)
	}
	gateway := llm.NewGateway(provider, log, cfg.MaxRetries, cfg.LLMTimeout())
	transcoder := transcode.NewFFmpegTranscoder(cfg.TranscodeTimeout(), log)

	p := pipeline.New(store, prompts, gateway, transcoder, log)
	p.MinScoreThreshold = cfg.MinScoreThreshold
	p.MaxClipsPerCollection = cfg.MaxClipsPerCollection
	p.MaxInFlightLLM = int64(cfg.MaxInFlightLLMPerProject)
	p.MaxInFlightTranscode = int64(cfg.MaxConcurrentTranscodes)
	p.ChunkSize = cfg.ChunkSize

	sched := scheduler.New(p, cfg.MaxConcurrentProcessing, log)
	dl := downloader.NewYtDlpDownloader(cfg.TranscodeTimeout(), log)

	if *videoPath != "" || *projectID != "" {
		runCLIMode(sched, store, log, *videoPath, *srtPath, *projectName, *projectID, *step)
		return
	}

	handler := api.NewHandler(store, p, sched, dl, log)
	router := api.NewRouter(handler)

	log.Info("clipforge: listening", "addr", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		log.Error("clipforge: server exited", "error", err)
		os.Exit(1)
	}
}

func runListProjects(store *project.Store, log *logger.Logger) {
	projects, err := store.ListProjects()
	if err != nil {
		log.Error("clipforge: list projects", "error", err)
		os.Exit(1)
	}
	for _, p := range projects {
		fmt.Printf("%s\t%s\t%s\n", p.ID, p.Status, p.Name)
	}
}

func runDeleteProject(store *project.Store, id string, log *logger.Logger) {
	// No scheduler in this CLI-only path (CLI mode never admits a run
	// concurrently with --delete-project), so the scheduler-eviction step
	// of the cascade is a no-op here.
	if err := store.DeleteProject(id, nil); err != nil {
		log.Error("clipforge: delete project", "project_id", id, "error", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %s\n", id)
}

// runCLIMode drives a single project's pipeline synchronously, bypassing
// the HTTP surface entirely — useful for scripted/local runs.
func runCLIMode(sched *scheduler.Scheduler, store *project.Store, log *logger.Logger, videoPath, srtPath, name, existingID string, step int) {
	id := existingID

	if id == "" {
		if videoPath == "" || srtPath == "" {
			log.Error("clipforge: --video and --srt are both required to start a new CLI-mode project")
			os.Exit(1)
		}
		if name == "" {
			name = "cli project"
		}
		proj, err := store.CreateProject(newProjectID(), name, "")
		if err != nil {
			log.Error("clipforge: create project", "error", err)
			os.Exit(1)
		}
		id = proj.ID

		layout := store.Layout(id)
		if err := copyLocalFile(videoPath, layout.InputVideo()); err != nil {
			log.Error("clipforge: copy video", "error", err)
			os.Exit(1)
		}
		if err := copyLocalFile(srtPath, layout.InputSubtitles()); err != nil {
			log.Error("clipforge: copy subtitles", "error", err)
			os.Exit(1)
		}
	}

	var err error
	switch {
	case step > 0:
		err = sched.Resume(id, step)
	default:
		err = sched.Start(id)
	}
	if err != nil {
		log.Error("clipforge: admit pipeline run", "project_id", id, "error", err)
		os.Exit(1)
	}

	for {
		st, ok := sched.Status(id)
		if !ok {
			break
		}
		switch st.State {
		case scheduler.RunCompleted, scheduler.RunFailed, scheduler.RunCancelled:
			fmt.Printf("project %s finished: %s %s\n", id, st.State, st.Error)
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func copyLocalFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.ReadFrom(in)
	return err
}

var cliProjectSeq int

// newProjectID produces a readable project id for CLI-mode runs without
// pulling in a UUID dependency on this rarely-used path; the HTTP upload
// path uses google/uuid.
func newProjectID() string {
	cliProjectSeq++
	return fmt.Sprintf("cli-%d-%d", os.Getpid(), cliProjectSeq)
}
