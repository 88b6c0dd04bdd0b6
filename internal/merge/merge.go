// Package merge deduplicates plant records across sources.
package merge

import (
	"github.com/plotify/plant-crawler/internal/metrics"
	"github.com/plotify/plant-crawler/internal/plant"
)

// descriptiveFields are the fields eligible for fill-in during a merge.
// Identity, derived links, common name and source labels are excluded.
var descriptiveFields = []func(*plant.Record) *string{
	func(r *plant.Record) *string { return &r.ScientificName },
	func(r *plant.Record) *string { return &r.Family },
	func(r *plant.Record) *string { return &r.PlantType },
	func(r *plant.Record) *string { return &r.SunExposure },
	func(r *plant.Record) *string { return &r.WaterRequirements },
	func(r *plant.Record) *string { return &r.FlowerColor },
	func(r *plant.Record) *string { return &r.Height },
	func(r *plant.Record) *string { return &r.Width },
	func(r *plant.Record) *string { return &r.USDAHardinessZone },
	func(r *plant.Record) *string { return &r.BloomingSeason },
	func(r *plant.Record) *string { return &r.Evergreen },
	func(r *plant.Record) *string { return &r.Synonyms },
}

// Deduplicate collapses records sharing a normalized scientific name
// into the first-seen record for that key, preserving first-appearance
// order. Later records concatenate their source label, fill in fields
// the first-seen record still has as Unknown (first-known-wins, never
// overwriting a known value) and always overwrite the detail link. The
// operation is idempotent.
func Deduplicate(records []plant.Record) []plant.Record {
	seen := make(map[string]int, len(records))
	unique := make([]plant.Record, 0, len(records))

	for _, rec := range records {
		key := plant.NormalizeName(rec.ScientificName)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(unique)
			unique = append(unique, rec)
			continue
		}

		existing := &unique[idx]
		existing.Source = existing.Source + ", " + rec.Source
		fillUnknown(existing, rec)
		if rec.SMGLink != "" {
			existing.SMGLink = rec.SMGLink
		}
		metrics.ObserveDuplicateMerged()
	}

	return unique
}

func fillUnknown(dst *plant.Record, src plant.Record) {
	for _, field := range descriptiveFields {
		incoming := *field(&src)
		target := field(dst)
		if *target == plant.Unknown && incoming != plant.Unknown {
			*target = incoming
		}
	}
}
