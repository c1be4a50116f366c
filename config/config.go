package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/gisworks/go-ward-mapper/webmap"
)

// Config holds every pipeline setting. Callers either construct one in
// Go code, or place a YAML file next to the data and call Load(). All
// fields have working defaults, so a config file only needs the keys it
// wants to change.
type Config struct {
	// Input is the path of the source ward shapefile.
	Input string `yaml:"input"`

	Output     Output     `yaml:"output"`
	Block      Block      `yaml:"block"`
	Attributes Attributes `yaml:"attributes"`
	Map        Map        `yaml:"map"`

	// Workers sizes the measure worker pool; 0 means one per CPU.
	Workers int `yaml:"workers"`

	Mongo Mongo `yaml:"mongo"`
}

// Output names the three artifacts the pipeline writes.
type Output struct {
	MapHTML       string `yaml:"map_html"`
	GeoJSON       string `yaml:"geojson"`
	ShapefileDir  string `yaml:"shapefile_dir"`
	ShapefileName string `yaml:"shapefile_name"`
}

// Block selects the wards to highlight. The ward set is deliberately an
// explicit parameter: nothing in the source data marks a block, the
// grouping is operational knowledge.
type Block struct {
	Name  string `yaml:"name"`
	Wards []int  `yaml:"wards"`
}

// Attributes names the source columns and the canonical population
// column every export carries.
type Attributes struct {
	ID               string `yaml:"id"`
	PopulationSource string `yaml:"population_source"`
	Population       string `yaml:"population"`
}

// Map controls the rendered page.
type Map struct {
	Title            string            `yaml:"title"`
	Zoom             int               `yaml:"zoom"`
	ContextLayerName string            `yaml:"context_layer_name"`
	Context          webmap.LayerStyle `yaml:"context_style"`
	Highlight        webmap.LayerStyle `yaml:"highlight_style"`
	Hover            webmap.HoverStyle `yaml:"hover_style"`
}

// Mongo configures the optional document sink. An empty URI disables
// the export entirely.
type Mongo struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Collection     string `yaml:"collection"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the connect/write deadline as a duration.
func (m Mongo) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Default returns the stock configuration for the Block 6 ward map.
func Default() Config {
	return Config{
		Input: "../data/FWT_WARDPOP.shp",
		Output: Output{
			MapHTML:       "../block6_boundary_map.html",
			GeoJSON:       "../block6_wards.geojson",
			ShapefileDir:  "../block6_shapefile",
			ShapefileName: "block6_wards",
		},
		Block: Block{
			Name:  "Block 6",
			Wards: []int{429, 430, 431, 432, 433, 434},
		},
		Attributes: Attributes{
			ID:               "Ward_No",
			PopulationSource: "SUM_Final_",
			Population:       "Population",
		},
		Map: Map{
			Title:            "Block 6 Ward Boundaries",
			Zoom:             14,
			ContextLayerName: "Other Wards",
			Context: webmap.LayerStyle{
				FillColor: "#dddddd", Color: "#888888", Weight: 0.8, FillOpacity: 0.4,
			},
			Highlight: webmap.LayerStyle{
				FillColor: "#ffcc00", Color: "#ff6600", Weight: 2.5, FillOpacity: 0.7,
			},
			Hover: webmap.HoverStyle{Weight: 3, Color: "red"},
		},
		Mongo: Mongo{
			Database:       "wardmaps",
			Collection:     "block_wards",
			TimeoutSeconds: 10,
		},
	}
}

// Load reads a YAML config file over the defaults, so a file only
// overrides the keys it names.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Output.ShapefileName == "" {
		c.Output.ShapefileName = d.Output.ShapefileName
	}
	if c.Block.Name == "" {
		c.Block.Name = d.Block.Name
	}
	if c.Attributes.ID == "" {
		c.Attributes.ID = d.Attributes.ID
	}
	if c.Attributes.Population == "" {
		c.Attributes.Population = d.Attributes.Population
	}
	if c.Map.Zoom <= 0 {
		c.Map.Zoom = d.Map.Zoom
	}
	if c.Map.ContextLayerName == "" {
		c.Map.ContextLayerName = d.Map.ContextLayerName
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = d.Mongo.Database
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = d.Mongo.Collection
	}
	if c.Mongo.TimeoutSeconds <= 0 {
		c.Mongo.TimeoutSeconds = d.Mongo.TimeoutSeconds
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config: input shapefile path is empty")
	}
	if len(c.Block.Wards) == 0 {
		return fmt.Errorf("config: block.wards must name at least one ward")
	}
	if c.Attributes.ID == "" {
		return fmt.Errorf("config: attributes.id is empty")
	}
	return nil
}

// RebaseOutputs moves all output paths under dir, keeping base names.
func (c *Config) RebaseOutputs(dir string) {
	c.Output.MapHTML = filepath.Join(dir, filepath.Base(c.Output.MapHTML))
	c.Output.GeoJSON = filepath.Join(dir, filepath.Base(c.Output.GeoJSON))
	c.Output.ShapefileDir = filepath.Join(dir, filepath.Base(c.Output.ShapefileDir))
}

// HighlightLayerName is the display name of the highlighted overlay.
// A contiguous ward set renders as a range, anything else as a comma
// list.
func (c Config) HighlightLayerName() string {
	ids := append([]int(nil), c.Block.Wards...)
	sort.Ints(ids)

	switch {
	case len(ids) == 0:
		return c.Block.Name
	case len(ids) == 1:
		return fmt.Sprintf("%s (Ward %d)", c.Block.Name, ids[0])
	}

	contiguous := true
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous {
		return fmt.Sprintf("%s (Wards %d–%d)", c.Block.Name, ids[0], ids[len(ids)-1])
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("%s (Wards %s)", c.Block.Name, strings.Join(parts, ", "))
}
