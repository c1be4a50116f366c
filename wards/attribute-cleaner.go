package wards

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceIDField rewrites the ward identifier column to int in every
// feature. Shapefile DBF numeric columns come back as float64 and some
// sources store the id as text, so both are accepted as long as the
// value is a whole number.
func CoerceIDField(c *Collection, field string) error {
	if !c.HasField(field) {
		return fmt.Errorf("id field %q not present in columns %v", field, c.Fields)
	}
	for i := range c.Features {
		f := &c.Features[i]
		v, err := coerceInt(f.Props[field])
		if err != nil {
			return fmt.Errorf("feature %d: id field %q: %w", i, field, err)
		}
		f.Props[field] = v
	}
	return nil
}

func coerceInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("value %v is not a whole number", t)
		}
		return int(t), nil
	case string:
		s := strings.TrimSpace(t)
		n, err := strconv.Atoi(s)
		if err != nil {
			// tolerate "429.0" style text
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int(f)) {
				return 0, fmt.Errorf("value %q is not an integer", t)
			}
			return int(f), nil
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("value is null")
	}
	return 0, fmt.Errorf("value %v has unsupported type %T", v, v)
}

// CanonicalizePopulation renames the source population column to the
// canonical name. When the source column is absent the canonical column
// is still added to the schema with a null value on every feature, so
// downstream consumers can rely on it existing. Returns whether the
// source column was found.
func CanonicalizePopulation(c *Collection, source, canonical string) bool {
	idx := c.FieldIndex(source)
	if idx < 0 {
		if !c.HasField(canonical) {
			c.Fields = append(c.Fields, canonical)
			for i := range c.Features {
				c.Features[i].Props[canonical] = nil
			}
		}
		return false
	}
	c.Fields[idx] = canonical
	for i := range c.Features {
		f := &c.Features[i]
		f.Props[canonical] = f.Props[source]
		delete(f.Props, source)
	}
	return true
}
