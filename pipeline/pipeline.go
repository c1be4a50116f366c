package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/gisworks/go-ward-mapper/config"
	"github.com/gisworks/go-ward-mapper/gis"
	"github.com/gisworks/go-ward-mapper/wards"
	"github.com/gisworks/go-ward-mapper/webmap"
)

// Diagnostics summarizes one run: source schema and CRS as loaded, and
// the outcome of the block partition. Inspect prints it, tests pin its
// exact rendering.
type Diagnostics struct {
	Columns         []string
	CRS             string
	BlockName       string
	MatchedWards    []int
	TotalWards      int
	Highlighted     int
	Context         int
	PopulationSum   float64
	PopulationKnown int
}

func (d *Diagnostics) String() string {
	pop := "unknown"
	if d.PopulationKnown > 0 {
		pop = fmt.Sprintf("%.1f across %d of %d wards", d.PopulationSum, d.PopulationKnown, d.Highlighted)
	}
	return fmt.Sprintf(
		"Columns: %v\nCRS: %s\n%s wards present: %v\nWards: %d total, %d highlighted, %d context\nPopulation (highlighted): %s\n",
		d.Columns, d.CRS, d.BlockName, d.MatchedWards,
		d.TotalWards, d.Highlighted, d.Context, pop,
	)
}

// prepared is the cleaned, partitioned source everything downstream
// consumes.
type prepared struct {
	block *wards.Collection
	rest  *wards.Collection
	diag  *Diagnostics
}

// prepare loads the source shapefile, cleans the attributes and splits
// off the block wards. No output is written and no reprojection happens
// here, so Inspect can reuse it untouched.
func prepare(cfg config.Config, sugar *zap.SugaredLogger) (*prepared, error) {
	c, err := gis.ReadShapefile(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.Input, err)
	}
	sugar.Infow("loaded ward shapefile", "path", cfg.Input, "features", c.Len())

	fmt.Printf("Columns: %v\n", c.Fields)
	fmt.Printf("CRS: %s\n", c.CRS)

	diag := &Diagnostics{
		Columns:   append([]string(nil), c.Fields...),
		CRS:       c.CRS.String(),
		BlockName: cfg.Block.Name,
	}

	issues, err := gis.CheckGeometries(c)
	if err != nil {
		return nil, fmt.Errorf("validating geometries: %w", err)
	}
	for _, issue := range issues {
		sugar.Warnw("invalid geometry", "feature", issue.Index, "reason", issue.Reason)
	}

	if err := wards.CoerceIDField(c, cfg.Attributes.ID); err != nil {
		return nil, err
	}
	if !wards.CanonicalizePopulation(c, cfg.Attributes.PopulationSource, cfg.Attributes.Population) {
		sugar.Warnw("population source column missing, filling null",
			"column", cfg.Attributes.PopulationSource)
	}

	block, rest := wards.Partition(c, cfg.Attributes.ID, cfg.Block.Wards)
	matched := wards.MatchedIDs(block, cfg.Attributes.ID)
	fmt.Printf("%s wards present: %v\n", cfg.Block.Name, matched)

	if block.Len() == 0 {
		return nil, fmt.Errorf("none of the %s wards %v are present in %s",
			cfg.Block.Name, cfg.Block.Wards, cfg.Input)
	}

	diag.MatchedWards = matched
	diag.TotalWards = c.Len()
	diag.Highlighted = block.Len()
	diag.Context = rest.Len()
	diag.PopulationSum, diag.PopulationKnown = populationSummary(block, cfg.Attributes.Population)

	return &prepared{block: block, rest: rest, diag: diag}, nil
}

// Run executes the whole pipeline: load, clean, partition, reproject,
// render the map and write every export.
func Run(cfg config.Config, sugar *zap.SugaredLogger) (*Diagnostics, error) {
	p, err := prepare(cfg, sugar)
	if err != nil {
		return nil, err
	}
	block, rest := p.block, p.rest

	if err := gis.ProjectToGeographic(block, rest); err != nil {
		return nil, err
	}
	sugar.Infow("collections in geographic coordinates", "crs", block.CRS.String())

	centerLon, centerLat, err := gis.UnionCentroid(block)
	if err != nil {
		return nil, fmt.Errorf("computing map center: %w", err)
	}

	labels, err := centroidLabels(block, cfg.Attributes.ID)
	if err != nil {
		return nil, err
	}

	spec := webmap.MapSpec{
		Title:           cfg.Map.Title,
		CenterLat:       centerLat,
		CenterLon:       centerLon,
		Zoom:            cfg.Map.Zoom,
		ContextName:     cfg.Map.ContextLayerName,
		HighlightName:   cfg.HighlightLayerName(),
		ContextStyle:    cfg.Map.Context,
		HighlightStyle:  cfg.Map.Highlight,
		Hover:           cfg.Map.Hover,
		IDField:         cfg.Attributes.ID,
		PopulationField: cfg.Attributes.Population,
		Labels:          labels,
		Context:         rest,
		Highlighted:     block,
	}
	if err := webmap.WriteHTML(cfg.Output.MapHTML, spec); err != nil {
		return nil, err
	}
	fmt.Printf("Map saved as: %s\n", cfg.Output.MapHTML)

	if err := gis.WriteGeoJSON(cfg.Output.GeoJSON, block); err != nil {
		return nil, err
	}
	fmt.Printf("%s GeoJSON saved as: %s\n", cfg.Block.Name, cfg.Output.GeoJSON)

	if err := gis.WriteShapefile(cfg.Output.ShapefileDir, cfg.Output.ShapefileName, block); err != nil {
		return nil, err
	}
	fmt.Printf("%s Shapefile saved in folder: %s\n", cfg.Block.Name, cfg.Output.ShapefileDir)

	stats := wards.MeasureBlock(block, cfg.Attributes.ID, cfg.Attributes.Population, cfg.Workers)
	fmt.Print(stats.Table(cfg.Block.Name))

	sink := MongoSink{
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		Collection: cfg.Mongo.Collection,
		Timeout:    cfg.Mongo.Timeout(),
	}
	if sink.Enabled() {
		n, err := sink.Export(context.Background(), block, cfg.Attributes.ID)
		if err != nil {
			return nil, fmt.Errorf("mongodb export: %w", err)
		}
		sugar.Infow("mongodb export finished", "documents", n,
			"database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		fmt.Printf("%s wards exported to MongoDB: %d\n", cfg.Block.Name, n)
	}

	return p.diag, nil
}

// Inspect loads, cleans and partitions without writing anything, then
// reports what a full run would work with.
func Inspect(cfg config.Config, sugar *zap.SugaredLogger) (*Diagnostics, error) {
	p, err := prepare(cfg, sugar)
	if err != nil {
		return nil, err
	}
	return p.diag, nil
}

func populationSummary(c *wards.Collection, popField string) (sum float64, known int) {
	for _, f := range c.Features {
		if v, ok := f.Number(popField); ok {
			sum += v
			known++
		}
	}
	return sum, known
}

// centroidLabels builds one badge per highlighted ward at its centroid.
func centroidLabels(c *wards.Collection, idField string) ([]webmap.Label, error) {
	labels := make([]webmap.Label, 0, c.Len())
	for i := range c.Features {
		f := &c.Features[i]
		id, ok := f.Int(idField)
		if !ok {
			return nil, fmt.Errorf("feature %d has no integer %s", i, idField)
		}
		lon, lat, err := gis.Centroid(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("centroid of ward %d: %w", id, err)
		}
		labels = append(labels, webmap.Label{Lat: lat, Lon: lon, Text: strconv.Itoa(id)})
	}
	return labels, nil
}
