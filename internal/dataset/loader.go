package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// Source file names inside the sources directory.
const (
	TreesFile = "trees.geojson"
	PumpsFile = "pumps.geojson"
	RainFile  = "rain.geojson"
)

// Datasets is one loaded snapshot of the map data. Collections are never
// nil once loaded; an unavailable source is an empty collection.
type Datasets struct {
	Trees *geojson.FeatureCollection
	Pumps *geojson.FeatureCollection
	Rain  *geojson.FeatureCollection
}

// Empty returns datasets with three empty collections.
func Empty() Datasets {
	return Datasets{
		Trees: geojson.NewFeatureCollection(),
		Pumps: geojson.NewFeatureCollection(),
		Rain:  geojson.NewFeatureCollection(),
	}
}

// Counts returns the number of features per collection.
func (d Datasets) Counts() (trees, pumps, rain int) {
	return count(d.Trees), count(d.Pumps), count(d.Rain)
}

func count(fc *geojson.FeatureCollection) int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

// Loader supplies datasets.
type Loader interface {
	Load(ctx context.Context) (Datasets, error)
}

// FileLoader reads datasets from GeoJSON files in a sources directory.
type FileLoader struct {
	sourcesDir string
	skipTrees  bool
}

// Option configures a FileLoader.
type Option func(*FileLoader)

// WithoutTrees skips the tree collection. Mobile clients read trees from
// vector tiles instead of GeoJSON.
func WithoutTrees() Option {
	return func(l *FileLoader) { l.skipTrees = true }
}

// NewFileLoader creates a loader reading from <dataDir>/sources.
func NewFileLoader(dataDir string, opts ...Option) *FileLoader {
	l := &FileLoader{sourcesDir: filepath.Join(dataDir, "sources")}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SourcesDir returns the directory the loader reads from.
func (l *FileLoader) SourcesDir() string {
	return l.sourcesDir
}

// Load reads the three collections concurrently.
func (l *FileLoader) Load(ctx context.Context) (Datasets, error) {
	out := Empty()
	g, ctx := errgroup.WithContext(ctx)

	if !l.skipTrees {
		g.Go(func() error {
			fc, err := l.read(ctx, TreesFile)
			out.Trees = fc
			return err
		})
	}
	g.Go(func() error {
		fc, err := l.read(ctx, PumpsFile)
		out.Pumps = fc
		return err
	})
	g.Go(func() error {
		fc, err := l.read(ctx, RainFile)
		out.Rain = fc
		return err
	})

	if err := g.Wait(); err != nil {
		return Datasets{}, err
	}
	return out, nil
}

func (l *FileLoader) read(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(l.sourcesDir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dataset missing, using empty collection", "file", path)
		return geojson.NewFeatureCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return fc, nil
}
