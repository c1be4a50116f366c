package webmap

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"github.com/gisworks/go-ward-mapper/gis"
	"github.com/gisworks/go-ward-mapper/wards"
)

//go:embed map-template.html
var templateFS embed.FS

var mapTemplate = template.Must(template.New("map-template.html").ParseFS(templateFS, "map-template.html"))

// LayerStyle mirrors the Leaflet path options applied to one overlay.
type LayerStyle struct {
	FillColor   string  `json:"fillColor" yaml:"fill_color"`
	Color       string  `json:"color" yaml:"color"`
	Weight      float64 `json:"weight" yaml:"weight"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fill_opacity"`
}

// HoverStyle is applied to a highlighted ward while the pointer is over
// it; mouseout restores the layer style.
type HoverStyle struct {
	Weight float64 `json:"weight" yaml:"weight"`
	Color  string  `json:"color" yaml:"color"`
}

// Label is one centroid badge with the ward number.
type Label struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Text string  `json:"text"`
}

type mapView struct {
	Center [2]float64 `json:"center"`
	Zoom   int        `json:"zoom"`
}

// MapSpec carries everything the map page needs. Both collections must
// already be in geographic WGS 84, since Leaflet speaks nothing else.
type MapSpec struct {
	Title           string
	CenterLat       float64
	CenterLon       float64
	Zoom            int
	ContextName     string
	HighlightName   string
	ContextStyle    LayerStyle
	HighlightStyle  LayerStyle
	Hover           HoverStyle
	IDField         string
	PopulationField string
	Labels          []Label
	Context         *wards.Collection
	Highlighted     *wards.Collection
}

// Render produces the standalone Leaflet HTML page. The two feature
// collections are embedded as GeoJSON literals, so the page needs no
// server besides the tile CDN.
func Render(spec MapSpec) ([]byte, error) {
	if spec.Context == nil || spec.Highlighted == nil {
		return nil, fmt.Errorf("both map layers must be set")
	}

	contextJSON, err := collectionJS(spec.Context)
	if err != nil {
		return nil, fmt.Errorf("context layer: %w", err)
	}
	highlightJSON, err := collectionJS(spec.Highlighted)
	if err != nil {
		return nil, fmt.Errorf("highlight layer: %w", err)
	}

	contextStyle, err := marshalTemplateJS(spec.ContextStyle)
	if err != nil {
		return nil, err
	}
	highlightStyle, err := marshalTemplateJS(spec.HighlightStyle)
	if err != nil {
		return nil, err
	}
	hoverStyle, err := marshalTemplateJS(spec.Hover)
	if err != nil {
		return nil, err
	}

	labels := spec.Labels
	if labels == nil {
		labels = []Label{}
	}
	labelsJSON, err := marshalTemplateJS(labels)
	if err != nil {
		return nil, err
	}

	// Leaflet wants the view center as [lat, lon]
	viewJSON, err := marshalTemplateJS(mapView{
		Center: [2]float64{spec.CenterLat, spec.CenterLon},
		Zoom:   spec.Zoom,
	})
	if err != nil {
		return nil, err
	}

	data := struct {
		Title              string
		ContextName        string
		HighlightName      string
		IDField            string
		PopulationField    string
		ViewJSON           template.JS
		ContextJSON        template.JS
		HighlightJSON      template.JS
		ContextStyleJSON   template.JS
		HighlightStyleJSON template.JS
		HoverStyleJSON     template.JS
		LabelsJSON         template.JS
	}{
		Title:              spec.Title,
		ContextName:        spec.ContextName,
		HighlightName:      spec.HighlightName,
		IDField:            spec.IDField,
		PopulationField:    spec.PopulationField,
		ViewJSON:           viewJSON,
		ContextJSON:        contextJSON,
		HighlightJSON:      highlightJSON,
		ContextStyleJSON:   contextStyle,
		HighlightStyleJSON: highlightStyle,
		HoverStyleJSON:     hoverStyle,
		LabelsJSON:         labelsJSON,
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing map template: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders the map page and writes it to path.
func WriteHTML(path string, spec MapSpec) error {
	page, err := Render(spec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, page, 0644); err != nil {
		return fmt.Errorf("writing map page: %w", err)
	}
	return nil
}

func collectionJS(c *wards.Collection) (template.JS, error) {
	data, err := gis.FeatureCollectionJSON(c)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

// marshalTemplateJS encodes a value as JSON and tags it as safe script
// content so the template engine embeds it verbatim.
func marshalTemplateJS(value interface{}) (template.JS, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return template.JS(""), err
	}
	return template.JS(payload), nil
}
