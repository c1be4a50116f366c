package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gisworks/go-ward-mapper/config"
	"github.com/gisworks/go-ward-mapper/pipeline"
)

var (
	// Global flags
	verbose    bool
	configPath string
	inputPath  string
	wardList   []int
	blockName  string
	zoom       int
	outDir     string
	workers    int
	mongoURI   string

	// Logger
	logger *zap.Logger
)

// version is stamped by the release build.
var version = "dev"

// rootCmd runs the whole pipeline: load, clean, partition, render, export.
var rootCmd = &cobra.Command{
	Use:   "ward-mapper",
	Short: "Render a ward block onto an interactive Leaflet map",
	Long: `ward-mapper turns a municipal ward shapefile into an interactive
Leaflet map plus GeoJSON and shapefile exports for one block of wards.

The pipeline loads the source polygons, normalizes the ward number and
population columns, splits off the configured ward block, reprojects
everything to WGS84 and writes the map page next to the data exports.

Examples:
  ward-mapper --config wards.yaml
  ward-mapper --input data/FWT_WARDPOP.shp --wards 429,430,431,432,433,434
  ward-mapper inspect --config wards.yaml`,
	Version:      version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logCfg := zap.NewProductionConfig()
		if verbose {
			logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, err = pipeline.Run(cfg, logger.Sugar())
		return err
	},
}

// inspectCmd reports what a full run would work with, without writing.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load and partition the source without writing any outputs",
	Long: `Runs the cleaning and partition steps only, then prints what a full
run would work with: columns, CRS, matched wards and population totals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		diag, err := pipeline.Inspect(cfg, logger.Sugar())
		if err != nil {
			return err
		}
		fmt.Print(diag)
		return nil
	},
}

// loadConfig builds the effective config: YAML file if given, defaults
// otherwise, with explicit flags overriding either.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = inputPath
	}
	if flags.Changed("wards") {
		cfg.Block.Wards = wardList
	}
	if flags.Changed("block-name") {
		cfg.Block.Name = blockName
	}
	if flags.Changed("zoom") {
		cfg.Map.Zoom = zoom
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("mongo-uri") {
		cfg.Mongo.URI = mongoURI
	}
	if flags.Changed("out-dir") {
		cfg.RebaseOutputs(outDir)
	}

	return cfg, cfg.Validate()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "Source ward shapefile (.shp)")
	rootCmd.PersistentFlags().IntSliceVar(&wardList, "wards", nil, "Ward numbers to highlight (comma separated)")
	rootCmd.PersistentFlags().StringVar(&blockName, "block-name", "", "Display name for the highlighted block")
	rootCmd.PersistentFlags().IntVar(&zoom, "zoom", 0, "Initial map zoom level")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the map and data exports")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Worker count for ward measurements (default: CPU count)")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string for the optional ward export")

	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
