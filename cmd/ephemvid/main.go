package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ephemvid/ephemvid-client/internal/config"
	"github.com/ephemvid/ephemvid-client/internal/logging"
)

const usage = `Usage: ephemvid <command> [flags]

Commands:
  list                               show the videos on the server
  upload <file>...                   upload up to 10 videos
  edit <id> [--trim s,e] [--crop x,y,w,h] [--compress MB]
  delete <id>                        delete a video
  download <format> <filename> [-o dir]
  gif <filename> [-o dir]            download an animated GIF rendition
  url <filename> [--copy]            print the share URL
  accept-terms --yes                 accept the privacy policy and terms
  agent                              run the local control API and drop folder
  version

Global flags:
  --base-url, --log-level, --data-dir, --config
`

// errUsage is returned for malformed command lines.
var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errFailed) {
			os.Exit(1)
		}
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		log.Fatalf("fatal error: %v", err)
	}
}

type command struct {
	flags func(fs *pflag.FlagSet)
	// privileged commands refuse to run before accept-terms.
	privileged bool
	run        func(ctx context.Context, a *app, fs *pflag.FlagSet) error
}

var commands = map[string]command{
	"list":         {privileged: true, run: runList},
	"upload":       {privileged: true, run: runUpload},
	"edit":         {privileged: true, flags: editFlags, run: runEdit},
	"delete":       {privileged: true, run: runDelete},
	"download":     {privileged: true, flags: outputFlag, run: runDownload},
	"gif":          {privileged: true, flags: outputFlag, run: runGIF},
	"url":          {flags: urlFlags, run: runURL},
	"accept-terms": {flags: termsFlags, run: runAcceptTerms},
	"agent":        {privileged: true, flags: config.RegisterAgentFlags, run: runAgent},
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Print(usage)
		return nil
	}
	if args[0] == "version" {
		fmt.Printf("ephemvid %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.New(fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	if args[0] == "agent" && cfg.LogFile() != "" {
		logger = logging.New(logging.Options{Level: cfg.LogLevel(), File: cfg.LogFile()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cmd.privileged {
		if err := a.requireTerms(ctx); err != nil {
			return err
		}
	}
	return cmd.run(ctx, a, fs)
}
