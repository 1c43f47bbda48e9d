// Command csm-offline maps a pair of cortical activation maps onto the
// cross-species feature space and projects the similarity into volume space.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmi-dair/csmgo"
	"github.com/cmi-dair/csmgo/config"
	"github.com/cmi-dair/csmgo/gifti"
	"github.com/cmi-dair/csmgo/surface"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "csm-offline:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		speciesName = flag.String("species", "human", "species of the input files (human or macaque)")
		output      = flag.String("output", "csm_offline_output", "basename of the output files")
		nTerms      = flag.Int("n-terms", 100, "number of terms to return from the image search")
		nStudies    = flag.Int("n-studies", 100, "number of studies to return from the image search")
		verbosity   = flag.String("verbosity", "info", "log verbosity: debug, info, warn or error")
		configPath  = flag.String("config", "", "optional YAML config file")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input_left> <input_right>\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Maps a pair of hemispheric activation maps onto the cross-species feature space.")
		fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		return fmt.Errorf("expected exactly two input files, got %d", flag.NArg())
	}

	level, err := parseLevel(*verbosity)
	if err != nil {
		return err
	}
	logger := csmgo.NewTextLogger(level)

	species, err := surface.ParseSpecies(*speciesName)
	if err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := csmgo.New(ctx, settings, csmgo.WithLogger(logger))
	if err != nil {
		return err
	}

	out, err := pipeline.Run(ctx, csmgo.RunInput{
		LeftPath:  settings.InputPath(flag.Arg(0)),
		RightPath: settings.InputPath(flag.Arg(1)),
		Species:   species,
		VolumeOut: settings.OutputPath(*output + "_similarity.nii.gz"),
		NTerms:    *nTerms,
		NStudies:  *nStudies,
	})
	if err != nil {
		return err
	}

	logger.Info("saving output", "dir", settings.OutputDir)
	for _, sp := range []surface.Species{surface.Human, surface.Macaque} {
		path := settings.OutputPath(fmt.Sprintf("%s_similarity_%s.gii", *output, sp))
		if err := gifti.WriteMetric(path, out.Similarity.Species(sp)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	if out.Search != nil {
		path := settings.OutputPath(*output + "_neuroquery.json")
		raw, err := json.MarshalIndent(out.Search, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown verbosity %q", name)
	}
}
