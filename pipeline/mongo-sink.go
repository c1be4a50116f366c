package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/gisworks/go-ward-mapper/wards"
)

// MongoSink mirrors the highlighted wards into a MongoDB collection so
// dashboards can query them without parsing the exported files. A sink
// with an empty URI is disabled and exports nothing.
type MongoSink struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

func (s MongoSink) Enabled() bool {
	return s.URI != ""
}

// Export upserts one document per ward keyed by ward id, so a rerun
// replaces documents instead of duplicating them. Returns the number of
// wards written.
func (s MongoSink) Export(ctx context.Context, c *wards.Collection, idField string) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.URI))
	if err != nil {
		return 0, fmt.Errorf("connecting to mongodb: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return 0, fmt.Errorf("pinging mongodb: %w", err)
	}

	coll := client.Database(s.Database).Collection(s.Collection)
	written := 0
	for i := range c.Features {
		doc, id, err := featureDocument(&c.Features[i], idField)
		if err != nil {
			return written, fmt.Errorf("feature %d: %w", i, err)
		}
		_, err = coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return written, fmt.Errorf("upserting ward %d: %w", id, err)
		}
		written++
	}
	return written, nil
}

// featureDocument flattens one ward into a BSON document with inline
// GeoJSON geometry, the shape MongoDB expects for 2dsphere indexes.
func featureDocument(f *wards.Feature, idField string) (bson.M, int, error) {
	id, ok := f.Int(idField)
	if !ok {
		return nil, 0, fmt.Errorf("feature has no integer %s", idField)
	}

	raw, err := geojson.Marshal(f.Geometry)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding geometry: %w", err)
	}
	var geometry bson.M
	if err := json.Unmarshal(raw, &geometry); err != nil {
		return nil, 0, fmt.Errorf("decoding geometry: %w", err)
	}

	return bson.M{
		"_id":        id,
		"properties": f.Props,
		"geometry":   geometry,
	}, id, nil
}
