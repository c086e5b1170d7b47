package service

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joeblew999/plat-trees/internal/dataset"
)

// SourceService lists the source data files.
type SourceService struct {
	sourcesDir string
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
	}
}

// roles maps the well-known file names to the dataset they feed.
var roles = map[string]string{
	dataset.TreesFile: "trees",
	dataset.PumpsFile: "pumps",
	dataset.RainFile:  "rain",
	CommunityFile:     "community",
}

// CommunityFile is the CSV export of community status, imported into DuckDB.
const CommunityFile = "community.csv"

// List returns all available source files.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, err
	}

	extToType := map[string]string{
		".geojson": "GeoJSON",
		".json":    "GeoJSON",
		".csv":     "CSV",
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		fileType, ok := extToType[ext]
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
			Role:     roles[entry.Name()],
		})
	}

	return files, nil
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}
