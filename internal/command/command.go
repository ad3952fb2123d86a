// Package command implements the motorcli commands.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/ocr/provider"
	"github.com/dgallion1/motorsig/internal/parser"
	"github.com/dgallion1/motorsig/internal/pipeline"
	"github.com/dgallion1/motorsig/internal/report"
	"github.com/dgallion1/motorsig/internal/speech"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitFailed       = 1
	exitInsufficient = 2
)

var commonFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "json",
		Usage:   "output format: json, yaml, text, md, html or docx",
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write to `PATH` instead of stdout",
	},
	&cli.StringFlag{
		Name:  "sample-id",
		Usage: "identifier printed in reports",
	},
	&cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "only log errors",
	},
}

// NewApp builds the motorcli application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "motorcli",
		Usage: "analyze handwriting compression and speech motor features offline",
		Commands: []*cli.Command{
			{
				Name:      "handwriting",
				Usage:     "analyze an OCR layout (Document AI JSON, hOCR, PDF) or a scanned image",
				ArgsUsage: "FILE",
				Flags:     commonFlags,
				Action:    func(c *cli.Context) error { return run(c, pipeline.KindHandwriting) },
			},
			{
				Name:      "speech",
				Usage:     "score a WAV or MP3 voice recording",
				ArgsUsage: "FILE",
				Flags:     commonFlags,
				Action:    func(c *cli.Context) error { return run(c, pipeline.KindSpeech) },
			},
		},
	}
}

func run(c *cli.Context, kind pipeline.Kind) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))

	if c.NArg() != 1 {
		return cli.Exit(fmt.Sprintf("usage: motorcli %s [flags] FILE", kind), exitFailed)
	}
	path := c.Args().First()
	format := strings.ToLower(c.String("format"))
	if err := checkFormat(format); err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read input: %s", err), exitFailed)
	}

	var rec parser.Recognizer
	if kind == pipeline.KindHandwriting && parser.IsImage(path) {
		p, err := provider.New(c.Context, config.Load())
		if err != nil {
			return cli.Exit(fmt.Sprintf("ocr provider: %s", err), exitFailed)
		}
		if p != nil {
			defer p.Close()
			rec = p
		}
	}

	job := pipeline.NewJob(kind, filepath.Base(path), "", data)
	job.SampleID = c.String("sample-id")
	pipeline.NewWorker(rec, nil, nil, logger, true).Process(contextOf(c), job)

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusInsufficient:
		return cli.Exit(strings.Join(snap.Errors, "; "), exitInsufficient)
	default:
		return cli.Exit(strings.Join(snap.Errors, "; "), exitFailed)
	}

	out := c.App.Writer
	if p := c.String("output"); p != "" && p != "-" {
		f, err := os.Create(p)
		if err != nil {
			return cli.Exit(fmt.Sprintf("create output: %s", err), exitFailed)
		}
		defer f.Close()
		out = f
	}

	meta := report.Meta{SampleID: snap.SampleID, Source: snap.Filename, Created: snap.CreatedAt}
	if res := job.Handwriting(); res != nil {
		return write(out, format, res, func() string { return res.Narrative }, func() *report.Report { return report.Handwriting(res, meta) })
	}
	res := job.Speech()
	return write(out, format, res, func() string { return speechText(res) }, func() *report.Report { return report.Speech(res, meta) })
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

func checkFormat(format string) error {
	switch format {
	case "json", "yaml", "text", "md", "html", "docx":
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}

func write(w io.Writer, format string, v any, text func() string, rep func() *report.Report) error {
	var (
		b   []byte
		err error
	)
	switch format {
	case "json":
		b, err = json.MarshalIndent(v, "", "  ")
		b = append(b, '\n')
	case "yaml":
		b, err = yaml.Marshal(v)
	case "text":
		b = []byte(text() + "\n")
	default:
		f, ferr := report.ParseFormat(format)
		if ferr != nil {
			return cli.Exit(ferr.Error(), exitFailed)
		}
		err = report.Write(w, rep(), f)
		if err != nil {
			return cli.Exit(fmt.Sprintf("write report: %s", err), exitFailed)
		}
		return nil
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("encode %s: %s", format, err), exitFailed)
	}
	if _, err := w.Write(b); err != nil {
		return cli.Exit(fmt.Sprintf("write output: %s", err), exitFailed)
	}
	return nil
}

func speechText(r *speech.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Severity score: %.1f / 4 (raw %.3f)\n", r.Score.Value, r.Raw)
	fmt.Fprintf(&b, "Duration: %.2f s at %d Hz\n", r.DurationSeconds, r.SampleRate)
	fmt.Fprintf(&b, "Pitch: mean %.1f Hz, variability %.2f Hz\n", r.PitchMean, r.PitchVariability)
	fmt.Fprintf(&b, "Volume: RMS %.4f, variability %.2f dB\n", r.RMS, r.VolumeVariability)
	fmt.Fprintf(&b, "Formants: mean %.1f Hz, variability %.1f Hz\n", r.FormantMean, r.FormantVariability)
	fmt.Fprintf(&b, "Jitter %.4f, shimmer %.4f, HNR %.2f dB", r.Jitter, r.Shimmer, r.HNR)
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "\nnote: %s", d)
	}
	return b.String()
}
