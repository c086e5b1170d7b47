package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/db"
	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/logging"
	"github.com/joeblew999/plat-trees/internal/waterneed"
)

// styleFlags are the filter controls of the map, as command-line flags.
type styleFlags struct {
	AgeMin    int
	AgeMax    int
	ViewMode  string
	WaterNeed string
	Layer     string
}

func (f styleFlags) state() (filter.State, error) {
	s := filter.State{
		AgeRange:     filter.AgeRange{f.AgeMin, f.AgeMax},
		ViewMode:     filter.ViewMode(f.ViewMode),
		VisibleLayer: filter.Layer(f.Layer),
	}
	if f.WaterNeed != "" {
		n, err := waterneed.ParseNeed(f.WaterNeed)
		if err != nil {
			return filter.State{}, err
		}
		s = s.WithWaterNeed(n)
	}
	return s, s.Validate()
}

// communitySnapshot reads community status from the data directory's
// database. Without one the snapshot is empty.
func communitySnapshot(ctx context.Context, dataDir string) community.Snapshot {
	store, err := db.Open(db.Config{DataDir: dataDir, DBName: "trees"})
	if err != nil {
		slog.Warn("community database unavailable", "error", err)
		return community.NewSnapshot(nil)
	}
	defer store.Close()
	snap, err := store.Snapshot(ctx)
	if err != nil {
		slog.Warn("reading community status", "error", err)
		return community.NewSnapshot(nil)
	}
	return snap
}

// toDocument turns composed expressions into plain values so that YAML
// output matches the JSON wire form.
func toDocument(e filter.Expressions) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func newStyleCmd() *cobra.Command {
	var flags styleFlags
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Print the tree layer expressions for a filter state",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logging.Setup(opts.LogLevel)
			state, err := flags.state()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid filters: %v\n", err)
				os.Exit(1)
			}
			snap := community.NewSnapshot(nil)
			if state.ViewMode != filter.ViewNone {
				snap = communitySnapshot(cmd.Context(), opts.DataDir)
			}
			doc, err := toDocument(filter.Compose(state, snap))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error composing style: %v\n", err)
				os.Exit(1)
			}
			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := printDoc(doc, useYAML); err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling style: %v\n", err)
				os.Exit(1)
			}
		}),
	}
	cmd.Flags().IntVar(&flags.AgeMin, "age-min", filter.MinAge, "Lower bound of the age range in years")
	cmd.Flags().IntVar(&flags.AgeMax, "age-max", filter.MaxAge, "Upper bound of the age range in years")
	cmd.Flags().StringVar(&flags.ViewMode, "view-mode", "", "Community lens: watered or adopted")
	cmd.Flags().StringVar(&flags.WaterNeed, "water-need", "", "Water-need filter: low, medium or high")
	cmd.Flags().StringVar(&flags.Layer, "layer", string(filter.LayerTrees), "Visible layer: trees, rain or pumps")
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}
