package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-trees/internal/api"
	"github.com/joeblew999/plat-trees/internal/api/live"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/db"
	"github.com/joeblew999/plat-trees/internal/engine"
	"github.com/joeblew999/plat-trees/internal/logging"
	"github.com/joeblew999/plat-trees/internal/metrics"
	"github.com/joeblew999/plat-trees/internal/service"
	"github.com/joeblew999/plat-trees/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	// TreesTilesetURL is the vector tile source sessions draw trees from.
	TreesTilesetURL  string
	TreesSourceLayer string
	// TreesFromTiles skips loading trees.geojson; trees then only come
	// from the tileset.
	TreesFromTiles bool
}

// Server is the trees HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	store    *db.Store
	services *api.Services
	renderer *templates.Renderer
}

// New creates a new trees server and loads the initial datasets.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-trees API", "1.0.0")
	humaConfig.Info.Description = "Street-tree map engine: filter styling, water-need classes, map sessions and live updates."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
	}

	// Community status lives in DuckDB; the map still works without it.
	store, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "trees"})
	if err != nil {
		slog.Warn("community database unavailable", "error", err)
	} else {
		s.store = store
		s.importCommunity(context.Background())
	}

	var loaderOpts []dataset.Option
	if cfg.TreesFromTiles {
		loaderOpts = append(loaderOpts, dataset.WithoutTrees())
	}
	loader := dataset.NewFileLoader(cfg.DataDir, loaderOpts...)

	var data *service.DataService
	if s.store != nil {
		data = service.NewDataService(loader, s.store)
	} else {
		data = service.NewDataService(loader, nil)
	}
	if err := data.Reload(context.Background()); err != nil {
		slog.Error("initial dataset load failed", "error", err)
	}

	s.services = &api.Services{
		Sessions: service.NewSessionService(engine.Config{
			TreesTilesetURL:  cfg.TreesTilesetURL,
			TreesSourceLayer: cfg.TreesSourceLayer,
		}, data, service.NewEventBus()),
		Data:    data,
		Tiles:   service.NewTileService(cfg.DataDir),
		Sources: service.NewSourceService(cfg.DataDir),
		Store:   s.store,
	}

	if r, err := templates.New(); err != nil {
		slog.Error("loading fragment templates", "error", err)
	} else {
		s.renderer = r
	}

	s.routes()
	s.handler = logging.AccessMiddleware(slog.Default(), metrics.ObserveRequest)(mux)
	return s
}

// importCommunity loads sources/community.csv into the community table
// when the file exists.
func (s *Server) importCommunity(ctx context.Context) {
	path := filepath.Join(s.config.DataDir, "sources", service.CommunityFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err := s.store.ImportCSV(ctx, path); err != nil {
		slog.Warn("community import failed", "path", path, "error", err)
		return
	}
	slog.Info("community status imported", "path", path)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)

	// Live session stream using Huma + Datastar SDK
	if s.renderer != nil {
		live.NewHandler(s.services.Sessions, s.renderer).RegisterRoutes(s.humaAPI)
	}

	s.mux.Handle("/metrics", metrics.Handler())

	tilesDir := filepath.Join(s.config.DataDir, "tiles")
	s.mux.Handle("/tiles/", http.StripPrefix("/tiles/", s.handleTiles(tilesDir)))

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Add("Link", `</health>; rel="service"`)
	w.Header().Add("Link", `</openapi.json>; rel="service-desc"`)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-trees",
		"status":  "running",
	})
}

// handleTiles serves PMTiles archives with the CORS and range headers map
// clients need.
func (s *Server) handleTiles(tilesDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		http.FileServer(http.Dir(tilesDir)).ServeHTTP(w, r)
	})
}
