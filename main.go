package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/naoterumaker/youtube-transcriber/infrastructure/configuration"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

var version = "dev"

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
		os.Exit(2)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	defer recoverPanic()

	if len(args) == 0 {
		printUsage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load env from files (non-destructive; OS env still has precedence)
	if n := configuration.LoadEnvFromFile("config.env", ".env"); n > 0 {
		logger.GetLogger().WithField("variables", n).Debug("Loaded env files")
	}

	var err error
	switch args[0] {
	case "transcript":
		err = cmdTranscript(ctx, args[1:])
	case "harvest":
		err = cmdHarvest(ctx, args[1:])
	case "serve":
		err = cmdServe(ctx, args[1:])
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage()
	default:
		// A bare URL or id is a transcript request.
		err = cmdTranscript(ctx, args)
	}
	if err == nil {
		return 0
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func printUsage() {
	fmt.Fprint(os.Stderr, `youtube-transcriber - YouTube transcript extractor and channel harvester

Usage:
  youtube-transcriber transcript [flags] <url|video-id>   Save the transcript of one video
  youtube-transcriber harvest [flags] <channel>           Harvest metrics and transcripts of a channel
  youtube-transcriber serve [flags]                       Run the HTTP API
  youtube-transcriber version                             Print the version

Examples:
  youtube-transcriber https://youtu.be/dQw4w9WgXcQ
  youtube-transcriber transcript dQw4w9WgXcQ --format txt -o out/rick.txt
  youtube-transcriber harvest "Go Programming" --period 3m --yes
  youtube-transcriber harvest UCxxxxxxxxxxxxxxxxxxxxxx --max 20 --no-csv

Harvest and serve need YOUTUBE_API_KEY (or YOUTUBE_API_KEY_1..10).
For help on a command: youtube-transcriber <command> -h
`)
}
