package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/viva/internal/backend"
	"github.com/joss/viva/internal/capture"
	"github.com/joss/viva/internal/config"
	"github.com/joss/viva/internal/grounding"
	"github.com/joss/viva/internal/interview"
	"github.com/joss/viva/internal/render"
	"github.com/joss/viva/internal/storage"
	"github.com/joss/viva/internal/tui"
)

func runCmd() *cobra.Command {
	var (
		chunkDir   string
		screenURL  string
		keepFrames bool
		noTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interview session",
		Long: `Start an interview session.

Without flags the session is answer-driven: questions arrive as soon
as enough evidence accrues, and you answer in the terminal. With
--chunk-dir the session replays pre-recorded audio chunks
(record-then-interview mode); with --screen-url a headless browser
samples the given page for screen evidence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			env := config.Load()
			settings := interview.Settings{
				ChunkSec:           env.ChunkSec,
				OCRIntervalSec:     env.OCRIntervalSec,
				SummaryIntervalSec: env.SummaryIntervalSec,
				MaxQuestions:       env.MaxQuestions,
				KeepFrames:         keepFrames,
				ReasoningModel:     env.ReasoningModel,
				VisionModel:        env.VisionModel,
				STTModel:           env.STTModel,
			}

			out := render.Stderr()
			var opts []interview.Option

			store, err := storage.New(env.DataDir)
			if err != nil {
				out.Println("! storage unavailable: %v (session will not be persisted)", err)
			} else {
				defer store.Close()
				opts = append(opts, interview.WithStore(store))
			}

			if env.OpenAIKey != "" {
				opts = append(opts, interview.WithBackend(backend.NewOpenAI(env.OpenAIKey, env.OpenAIBaseURL, backend.Models{
					Reasoning: env.ReasoningModel,
					Vision:    env.VisionModel,
					STT:       env.STTModel,
				})))
			} else {
				out.Println("! OPENAI_API_KEY not set: running with fallback questions and report")
			}

			if projector := grounding.ConnectOptional(ctx, grounding.Config{
				URI:      env.Neo4jURI,
				Username: env.Neo4jUser,
				Password: env.Neo4jPassword,
			}); projector != nil {
				defer projector.Close(context.Background())
				opts = append(opts, interview.WithGrounding(projector))
			}

			ctrl := interview.NewController(settings, opts...)

			mode := interview.ModeLive
			if chunkDir != "" {
				mode = interview.ModeRecordThenInterview
			}
			sess := ctrl.Start(ctx, mode)
			ctrl.BeginCapture(ctx)
			out.Println("Session %s started (%s)", sess.ID, mode)

			var frames capture.FrameSource
			if screenURL != "" {
				frames, err = capture.OpenScreen(screenURL)
				if err != nil {
					out.Println("! screen capture unavailable: %v", err)
					frames = nil
				} else {
					defer frames.Close()
				}
			}
			var audio capture.AudioSource
			if chunkDir != "" {
				audio, err = capture.OpenChunkDir(chunkDir)
				if err != nil {
					return fmt.Errorf("open chunk dir: %w", err)
				}
				defer audio.Close()
			}

			events := make(chan capture.Event, 64)
			captureCtx, stopCapture := context.WithCancel(ctx)
			defer stopCapture()
			go capture.Run(captureCtx, capture.Config{
				ChunkSec:       settings.ChunkSec,
				OCRIntervalSec: settings.OCRIntervalSec,
			}, frames, audio, events)
			go ctrl.Run(captureCtx, events)

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			var bundle *interview.Bundle
			if interactive && !noTUI {
				bundle, err = tui.Run(ctx, ctrl)
			} else {
				bundle, err = runPlain(ctx, ctrl, out)
			}
			stopCapture()
			if err != nil {
				return err
			}
			if bundle == nil {
				return nil
			}

			renderer := render.New(pretty && term.IsTerminal(int(os.Stdout.Fd())))
			fmt.Println(renderer.Report(bundle))

			mdPath, jsonPath, exportErr := exportBundle(env.DataDir, bundle)
			if exportErr != nil {
				out.Println("! export failed: %v", exportErr)
			} else {
				out.Println("Report: %s", mdPath)
				out.Println("Bundle: %s", jsonPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chunkDir, "chunk-dir", "", "Directory of pre-recorded audio chunks (record-then-interview mode)")
	cmd.Flags().StringVar(&screenURL, "screen-url", "", "URL to sample for screen evidence via headless browser")
	cmd.Flags().BoolVar(&keepFrames, "keep-frames", false, "Retain captured frames in the session bundle")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Plain terminal mode instead of the interactive UI")
	return cmd
}

// runPlain is the non-TUI session loop: new questions print as they
// arrive, stdin lines are answers, and a few slash commands steer the
// session. EOF or interrupt ends the session.
func runPlain(ctx context.Context, ctrl *interview.Controller, out *render.Writer) (*interview.Bundle, error) {
	renderer := render.New(false)
	out.Println("Answer on stdin. Commands: /skip, /followup, /stop")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastQuestionID := ""
	lastWarning := ""
	for {
		select {
		case <-ctx.Done():
			return ctrl.Stop(context.Background())

		case <-ticker.C:
			if q := ctrl.CurrentQuestion(); q != nil && q.ID != lastQuestionID {
				lastQuestionID = q.ID
				out.Print("%s", renderer.Question(q, ctrl.Elapsed()))
			}
			if w := ctrl.Warning(); w != "" && w != lastWarning {
				lastWarning = w
				out.Println("! %s", w)
			}

		case line, ok := <-lines:
			if !ok {
				return ctrl.Stop(ctx)
			}
			switch strings.TrimSpace(line) {
			case "":
			case "/stop":
				return ctrl.Stop(ctx)
			case "/skip":
				ctrl.SkipQuestion(ctx)
			case "/followup":
				ctrl.AskFollowupNow(ctx)
			default:
				ctrl.SubmitAnswer(ctx, line, interview.AnswerTyped)
			}
		}
	}
}

// exportBundle writes the markdown report and JSON bundle under
// <dataDir>/exports/<sessionID>/.
func exportBundle(dataDir string, bundle *interview.Bundle) (mdPath, jsonPath string, err error) {
	dir := filepath.Join(dataDir, "exports", bundle.Session.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create export dir: %w", err)
	}

	mdPath = filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(render.Markdown(bundle)), 0644); err != nil {
		return "", "", fmt.Errorf("write markdown: %w", err)
	}

	data, err := render.BundleJSON(bundle)
	if err != nil {
		return "", "", fmt.Errorf("marshal bundle: %w", err)
	}
	jsonPath = filepath.Join(dir, "bundle.json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("write bundle: %w", err)
	}
	return mdPath, jsonPath, nil
}
