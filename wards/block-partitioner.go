package wards

import "sort"

// Partition splits a collection into the features whose id is in the
// block set and everything else. Both halves are deep copies in source
// order, so callers can reproject or mutate either side without touching
// the input. Every feature lands in exactly one half.
func Partition(c *Collection, idField string, blockIDs []int) (block, rest *Collection) {
	want := make(map[int]bool, len(blockIDs))
	for _, id := range blockIDs {
		want[id] = true
	}
	block = &Collection{Fields: append([]string(nil), c.Fields...), CRS: c.CRS}
	rest = &Collection{Fields: append([]string(nil), c.Fields...), CRS: c.CRS}
	for _, f := range c.Features {
		id, ok := f.Int(idField)
		if ok && want[id] {
			block.Features = append(block.Features, copyFeature(f))
		} else {
			rest.Features = append(rest.Features, copyFeature(f))
		}
	}
	return block, rest
}

// MatchedIDs lists the block ids actually present in the collection,
// sorted and deduplicated. The source data may hold fewer wards than the
// configured block set.
func MatchedIDs(c *Collection, idField string) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, f := range c.Features {
		if id, ok := f.Int(idField); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
