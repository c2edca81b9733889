package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/configuration"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/filecsv"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/realtime"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/report"
	"github.com/naoterumaker/youtube-transcriber/interfaces/cli"
	httpHandler "github.com/naoterumaker/youtube-transcriber/interfaces/http"
	"github.com/naoterumaker/youtube-transcriber/server"
	"github.com/naoterumaker/youtube-transcriber/usecase"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// errUsage marks a command line error already reported by the flag set.
var errUsage = errors.New("usage")

const defaultTranscriptPath = "output/transcript"

// parseFlags parses args, binds the named flags onto viper keys and loads the config.
func parseFlags(fs *pflag.FlagSet, args []string, bindings map[string]string) (*configuration.Config, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errUsage
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return nil, errUsage
	}
	v := configuration.New()
	if err := bindFlags(v, fs, bindings); err != nil {
		return nil, err
	}
	return configuration.Load(v)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: youtube-transcriber %s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

func cmdTranscript(ctx context.Context, args []string) error {
	fs := newFlagSet("transcript", "transcript [flags] <url|video-id>")
	output := fs.StringP("output", "o", defaultTranscriptPath+".md", "Output file path")
	formatFlag := fs.StringP("format", "f", "md", "Output format: md or txt")
	fs.StringSlice("lang", nil, "Preferred transcript languages, in order (default ja,ja-JP,en,en-US)")

	config, err := parseFlags(fs, args, map[string]string{"youtube.languages": "lang"})
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one YouTube URL or video id")
		fs.Usage()
		return errUsage
	}
	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	path := *output
	if !fs.Changed("output") {
		path = defaultTranscriptPath + format.Ext()
	}

	a := newApp(ctx, config, false)
	defer a.Close()

	artifact, err := usecase.NewTranscriptUseCase(a.transcriptFetcher()).Extract(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	doc := report.Document{
		URL:       artifact.SourceURL,
		Language:  artifact.Language,
		Text:      artifact.Text,
		Generated: time.Now(),
	}
	if err := report.WriteDocument(path, doc, format); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	fmt.Printf("Transcript (%s, %d characters) saved to %s\n", artifact.Language, len([]rune(artifact.Text)), path)
	return nil
}

func cmdHarvest(ctx context.Context, args []string) error {
	fs := newFlagSet("harvest", "harvest [flags] <channel name|channel id>")
	fs.String("out", "output", "Output directory")
	fs.String("format", "md", "Transcript document format: md or txt")
	fs.Int("concurrency", 1, "Videos processed in parallel")
	maxVideos := fs.Int("max", 0, "Maximum videos to process (0 = no explicit cap)")
	periodFlag := fs.String("period", "", "Period: 3m, 6m, 1y or all (asked interactively when empty)")
	yes := fs.BoolP("yes", "y", false, "Accept the recommended video cap without asking")
	noCSV := fs.Bool("no-csv", false, "Skip the CSV export")
	noTranscripts := fs.Bool("no-transcripts", false, "Harvest metrics only, without transcripts")

	config, err := parseFlags(fs, args, map[string]string{
		"harvest.outputDir":   "out",
		"harvest.format":      "format",
		"harvest.concurrency": "concurrency",
	})
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing channel name")
		fs.Usage()
		return errUsage
	}
	if *maxVideos < 0 {
		return fmt.Errorf("--max must not be negative")
	}
	channel := strings.Join(fs.Args(), " ")

	format, err := report.ParseFormat(config.Harvest.Format)
	if err != nil {
		return err
	}

	prompter := cli.NewPrompter(os.Stdin, os.Stdout)
	var period model.Period
	if *periodFlag != "" {
		if period, err = model.ParsePeriod(*periodFlag); err != nil {
			return err
		}
	} else if period, err = prompter.SelectPeriod(); err != nil {
		return err
	}

	a := newApp(ctx, config, true)
	defer a.Close()

	outDir := config.Harvest.OutputDir
	sinks := []repository.IHarvestSink{report.NewSummary(outDir)}
	if !*noCSV {
		sinks = append(sinks, filecsv.NewVideosCSV(outDir))
	}
	if !*noTranscripts {
		sinks = append(sinks, report.NewTranscriptDocs(outDir, format))
	}
	if a.store != nil {
		sinks = append(sinks, a.store)
	}

	uc, err := a.harvestUseCase(sinks...)
	if err != nil {
		return err
	}
	req := usecase.HarvestRequest{
		Channel:         channel,
		Period:          period,
		MaxVideos:       *maxVideos,
		SkipTranscripts: *noTranscripts,
	}
	if !*yes {
		req.Confirm = prompter.Confirm
	}

	result, err := uc.Harvest(ctx, req)
	if result != nil && result.State == model.StateDone {
		printSummary(os.Stdout, result, filecsv.RunDir(outDir, result))
	}
	if err == nil && result.State == model.StateFailed {
		return fmt.Errorf("%w for %s in %s", model.ErrNoVideosFound, result.Channel.Title, result.Period.Label())
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted, partial results saved: %w", err)
	}
	return err
}

func printSummary(w io.Writer, r *model.HarvestResult, runDir string) {
	fmt.Fprintf(w, "\nChannel:      %s (%d subscribers)\n", r.Channel.Title, r.Channel.SubscriberCount)
	fmt.Fprintf(w, "Period:       %s\n", r.Period.Label())
	fmt.Fprintf(w, "Found:        %d videos\n", r.Found)
	if r.Recommended > 0 {
		fmt.Fprintf(w, "Recommended:  %d videos\n", r.Recommended)
	}
	fmt.Fprintf(w, "Processed:    %d videos (%d records, %d unavailable)\n", r.Processed, len(r.Records), r.DetailFailed)
	fmt.Fprintf(w, "Transcripts:  %d succeeded, %d failed\n", r.TranscriptSuccess, r.TranscriptFailed)
	if r.Partial {
		fmt.Fprintln(w, "Partial run:  yes")
	}
	fmt.Fprintf(w, "Elapsed:      %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	fmt.Fprintf(w, "Saved to:     %s\n", filepath.Clean(runDir))
}

func cmdServe(ctx context.Context, args []string) error {
	fs := newFlagSet("serve", "serve [flags]")
	fs.Int("port", 10001, "HTTP port")
	fs.String("out", "output", "Output directory for harvest reports")

	config, err := parseFlags(fs, args, map[string]string{
		"app.port":          "port",
		"harvest.outputDir": "out",
	})
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(config.Harvest.Format)
	if err != nil {
		return err
	}

	a := newApp(ctx, config, true)
	defer a.Close()

	outDir := config.Harvest.OutputDir
	sinks := []repository.IHarvestSink{
		report.NewSummary(outDir),
		filecsv.NewVideosCSV(outDir),
		report.NewTranscriptDocs(outDir, format),
	}
	if a.store != nil {
		sinks = append(sinks, a.store)
	}
	harvestUC, err := a.harvestUseCase(sinks...)
	if err != nil {
		return err
	}
	hub := realtime.NewHarvestHub()
	harvestUC = harvestUC.WithBroadcaster(hub.Broadcast)
	transcriptUC := usecase.NewTranscriptUseCase(a.transcriptFetcher())

	router := server.InitiateRouter(
		server.RouterConfig{AllowOrigins: config.App.AllowOrigins, APIToken: config.App.APIToken},
		httpHandler.NewHealthHandler(version),
		httpHandler.NewHarvestHandler(harvestUC, transcriptUC, a.store),
		hub,
	)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.GetLogger().WithFields(map[string]interface{}{
			"port":    config.App.Port,
			"version": version,
			"store":   a.store != nil,
			"cache":   a.redis != nil,
		}).Info("Starting application")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
