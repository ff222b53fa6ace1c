package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/ephemvid/ephemvid-client/internal/composer"
	"github.com/ephemvid/ephemvid-client/internal/download"
	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

const termsNotice = `This site uses strictly necessary cookies and technical identifiers to
enable temporary video uploads and prevent abuse. Videos expire after 24 hours.
Please read and accept our Privacy Policy and Terms of Service.
`

// errFailed signals that the command already reported its failure.
var errFailed = errors.New("one or more operations failed")

func termsFlags(fs *pflag.FlagSet) {
	fs.Bool("yes", false, "I accept the Privacy Policy and Terms of Service")
}

func runAcceptTerms(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	fmt.Print(termsNotice)
	yes, _ := fs.GetBool("yes")
	if !yes {
		return fmt.Errorf("%w: re-run with --yes to accept", identity.ErrTermsNotAccepted)
	}
	if err := identity.AcceptTerms(ctx, a.store); err != nil {
		return err
	}
	fmt.Println("Terms accepted.")
	return nil
}

func runList(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	if err := a.roster.Refresh(ctx); err != nil {
		return errFailed
	}
	videos := a.roster.Snapshot()
	if len(videos) == 0 {
		fmt.Println("No videos.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLENGTH\tSIZE\tUPLOADED\tURL")
	for _, v := range videos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID,
			v.DisplayName(),
			media.FormatTimestamp(v.Duration),
			humanize.Bytes(uint64(v.Size)),
			humanize.Time(v.Created()),
			a.client.FileURL(v.Filename),
		)
	}
	return tw.Flush()
}

func runUpload(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("%w: upload needs at least one file", errUsage)
	}

	sub := a.dropZone.Pick(ctx, paths)
	outcomes := sub.Wait()
	a.roster.Wait()

	for _, d := range sub.Decisions() {
		if !d.Accepted {
			return errFailed
		}
	}
	for _, o := range outcomes {
		if !o.OK() {
			return errFailed
		}
	}
	return nil
}

func editFlags(fs *pflag.FlagSet) {
	fs.String("trim", "", "keep only START,END seconds")
	fs.String("crop", "", "crop to X,Y,WIDTH,HEIGHT pixels")
	fs.Float64("compress", 0, "target size in MB")
}

func runEdit(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	id, err := videoID(fs)
	if err != nil {
		return err
	}

	if err := a.roster.Refresh(ctx); err != nil {
		return errFailed
	}
	video, ok := a.roster.Find(id)
	if !ok {
		return fmt.Errorf("video %d not found", id)
	}

	c := a.compose(video, composer.Bounds{}, nil)
	defer c.Close()

	if raw, _ := fs.GetString("trim"); raw != "" {
		vals, err := parseNumbers(raw, 2)
		if err != nil {
			return fmt.Errorf("%w: --trim: %v", errUsage, err)
		}
		c.SetTrimEnabled(true)
		if err := c.SetRange(vals[0], vals[1]); err != nil {
			return err
		}
	}

	if raw, _ := fs.GetString("crop"); raw != "" {
		vals, err := parseNumbers(raw, 4)
		if err != nil {
			return fmt.Errorf("%w: --crop: %v", errUsage, err)
		}
		c.SetCropEnabled(true)
		if _, err := c.SetCrop(composer.Rect{X: int(vals[0]), Y: int(vals[1]), Width: int(vals[2]), Height: int(vals[3])}); err != nil {
			return err
		}
	}

	if fs.Changed("compress") {
		mb, _ := fs.GetFloat64("compress")
		c.SetCompressEnabled(true)
		c.SetCompressMB(mb)
	}

	if err := c.Submit(ctx); err != nil {
		return errFailed
	}
	return nil
}

func runDelete(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	id, err := videoID(fs)
	if err != nil {
		return err
	}
	if err := a.remover.Remove(ctx, id); err != nil {
		return errFailed
	}
	return nil
}

func outputFlag(fs *pflag.FlagSet) {
	fs.StringP("output", "o", ".", "directory to save into")
}

func runDownload(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: download needs <format> <filename>", errUsage)
	}
	dir, _ := fs.GetString("output")
	path, err := a.saver.Rendition(ctx, fs.Arg(0), fs.Arg(1), download.CleanOutputDir(dir))
	if err != nil {
		return errFailed
	}
	fmt.Println(path)
	return nil
}

func runGIF(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: gif needs <filename>", errUsage)
	}
	dir, _ := fs.GetString("output")
	path, err := a.saver.GIF(ctx, fs.Arg(0), download.CleanOutputDir(dir))
	if err != nil {
		return errFailed
	}
	fmt.Println(path)
	return nil
}

func urlFlags(fs *pflag.FlagSet) {
	fs.Bool("copy", false, "copy the URL to the clipboard")
}

func runURL(_ context.Context, a *app, fs *pflag.FlagSet) error {
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: url needs <filename>", errUsage)
	}
	url := a.client.FileURL(fs.Arg(0))
	fmt.Println(url)

	if copyIt, _ := fs.GetBool("copy"); copyIt {
		copyToClipboard(url, a.reporter)
	}
	return nil
}

func copyToClipboard(text string, reporter notify.Reporter) {
	if err := clipboard.WriteAll(text); err != nil {
		reporter.Report("Couldn't copy to clipboard", notify.Error)
		return
	}
	reporter.Report("Copied to clipboard", notify.Success)
}

func videoID(fs *pflag.FlagSet) (int64, error) {
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%w: expected a single video id", errUsage)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid video id %q", errUsage, fs.Arg(0))
	}
	return id, nil
}

// parseNumbers splits a comma separated list of exactly n numbers.
func parseNumbers(raw string, n int) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}
