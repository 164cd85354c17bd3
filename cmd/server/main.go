package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	"github.com/ZanzyTHEbar/neuropredict/internal/config"
	"github.com/ZanzyTHEbar/neuropredict/internal/monitoring"
	"github.com/ZanzyTHEbar/neuropredict/internal/privacy"
)

const version = "1.0.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("neuropredict failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "neuropredict",
		Usage:   "Parkinson's symptom risk estimation service",
		Version: version,
		Flags:   config.Flags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP service (default)",
				Flags:  config.Flags(),
				Action: serve,
			},
			{
				Name:   "assess",
				Usage:  "score a questionnaire given as flags and print the result as JSON",
				Flags:  assessFlags(),
				Action: assess,
			},
			{
				Name:   "ranges",
				Usage:  "show the probability ranges of the simulated analyses, or override one",
				Flags:  rangesFlags(),
				Action: ranges,
			},
		},
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	priv, err := privacy.NewService(cfg.CaptureTTL, cfg.CacheTTL)
	if err != nil {
		return err
	}

	logger := monitoring.NewPrivateLogger(os.Stdout, cfg.LogLevel, priv.AnonymizeData)
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.GinMode)

	analyzer, err := analysis.NewAnalyzer(cfg.DataDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newServer(cfg, analyzer, priv, logger).run(ctx)
}

func assessFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, analysis.SymptomCount)
	for _, q := range analysis.Questionnaire() {
		flags = append(flags, &cli.IntFlag{
			Name:  q.ID,
			Usage: fmt.Sprintf("%s (%s)", q.Label, q.Description),
		})
	}
	return flags
}

// assess reads one rating per symptom flag. Flags left out count as unanswered.
func assess(c *cli.Context) error {
	answers := make(map[string]*int, analysis.SymptomCount)
	for _, s := range analysis.Symptoms() {
		name := s.String()
		if !c.IsSet(name) {
			answers[name] = nil
			continue
		}
		v := c.Int(name)
		answers[name] = &v
	}

	res, err := analysis.NewAnalyzerWithStub(nil).AnalyzeQuestionnaire(answers)
	if err != nil {
		return cli.Exit(fmt.Sprintf("assessment failed: %v", err), 2)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Report())
}

func rangesFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Value:   config.Default().DataDir,
			Usage:   "directory holding ranges/<modality>.json",
			EnvVars: []string{"DATA_DIR"},
		},
		&cli.StringFlag{Name: "modality", Usage: "simulated modality to override (audio or drawing)"},
		&cli.Float64Flag{Name: "min", Usage: "lowest disease probability in percent"},
		&cli.Float64Flag{Name: "max", Usage: "highest disease probability in percent"},
	}
}

// ranges writes an override when --modality is given, then prints every range
// the service would load.
func ranges(c *cli.Context) error {
	store := analysis.NewRangeStore(c.String("data-dir"))

	if m := c.String("modality"); m != "" {
		if !c.IsSet("min") || !c.IsSet("max") {
			return cli.Exit("both --min and --max are required with --modality", 2)
		}
		r := analysis.ProbabilityRange{Min: c.Float64("min"), Max: c.Float64("max")}
		if err := store.Save(analysis.Modality(m), r); err != nil {
			return cli.Exit(fmt.Sprintf("failed to save range: %v", err), 2)
		}
	}

	all, err := store.LoadAll()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load ranges: %v", err), 1)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(all)
}
