package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-trees/internal/logging"
	"github.com/joeblew999/plat-trees/internal/server"
)

// Options defines all CLI flags and env vars for the trees server.
// Flags: --host, --port, --data-dir, --log-level, --trees-tileset-url, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_LOG_LEVEL, ...
type Options struct {
	Host             string `doc:"Host to bind to" default:"0.0.0.0"`
	Port             int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir          string `doc:"Directory with sources/, tiles/ and duckdb/" default:".data"`
	LogLevel         string `doc:"Log level: debug, info, warn or error" default:"info"`
	TreesTilesetURL  string `doc:"Vector tile URL of the tree layer" default:"pmtiles:///tiles/trees.pmtiles"`
	TreesSourceLayer string `doc:"Layer name inside the tree tileset" default:"original"`
	TreesFromTiles   bool   `doc:"Skip trees.geojson and draw trees from tiles only"`
}

func newServer(opts *Options) *server.Server {
	return server.New(server.Config{
		Host:             opts.Host,
		Port:             fmt.Sprintf("%d", opts.Port),
		DataDir:          opts.DataDir,
		TreesTilesetURL:  opts.TreesTilesetURL,
		TreesSourceLayer: opts.TreesSourceLayer,
		TreesFromTiles:   opts.TreesFromTiles,
	})
}

// printDoc writes v as indented JSON, or YAML when asYAML is set.
func printDoc(v any, asYAML bool) error {
	var output []byte
	var err error
	if asYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func main() {
	_ = godotenv.Load(".env")

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logging.Setup(opts.LogLevel)
		srv := newServer(opts)

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-trees API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Live:    %s/api/v1/live/{session}\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				srv.Close()
				logging.Fatalf("Server error: %v", err)
			}
		})
		hooks.OnStop(func() {
			srv.Close()
		})
	})

	cli.Root().Use = "trees"
	cli.Root().Short = "Thematic street-tree map engine"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logging.Setup("error")
			srv := newServer(opts)
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := printDoc(srv.OpenAPI(), useYAML); err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(newStyleCmd())

	cli.Run()
}
