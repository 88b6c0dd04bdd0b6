// Package plant defines the canonical record model shared by every
// pipeline stage, plus the small interfaces the stages depend on.
package plant

import "strings"

// Unknown marks a descriptive field no source has provided a value for.
const Unknown = "Unknown"

// Record is the canonical representation of one plant, regardless of
// which source it came from. Descriptive fields default to Unknown so a
// merge can tell "never seen" from an empty source value.
type Record struct {
	PlantID           string `json:"plant_id"`
	CommonName        string `json:"common_name"`
	YoutubeLink       string `json:"youtube_link"`
	WikipediaLink     string `json:"wikipedia_link"`
	SMGLink           string `json:"smg_link,omitempty"`
	Source            string `json:"source"`
	ScientificName    string `json:"scientific_name"`
	Family            string `json:"family"`
	PlantType         string `json:"plant_type"`
	SunExposure       string `json:"sun_exposure"`
	WaterRequirements string `json:"water_requirements"`
	FlowerColor       string `json:"flower_color"`
	Height            string `json:"height"`
	Width             string `json:"width"`
	USDAHardinessZone string `json:"usda_hardiness_zone"`
	BloomingSeason    string `json:"blooming_season"`
	Evergreen         string `json:"evergreen"`
	Synonyms          string `json:"synonyms"`
}

// NewRecord builds a Record with every descriptive field set to Unknown
// and the search links derived from the scientific name. An empty
// common name falls back to the scientific name.
func NewRecord(id, scientificName, commonName, source string) Record {
	if commonName == "" {
		commonName = scientificName
	}
	return Record{
		PlantID:           id,
		CommonName:        commonName,
		YoutubeLink:       YoutubeSearchLink(scientificName),
		WikipediaLink:     WikipediaArticleLink(scientificName),
		Source:            source,
		ScientificName:    scientificName,
		Family:            Unknown,
		PlantType:         Unknown,
		SunExposure:       Unknown,
		WaterRequirements: Unknown,
		FlowerColor:       Unknown,
		Height:            Unknown,
		Width:             Unknown,
		USDAHardinessZone: Unknown,
		BloomingSeason:    Unknown,
		Evergreen:         Unknown,
		Synonyms:          Unknown,
	}
}

// NormalizeName returns the deduplication key for a plant name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// YoutubeSearchLink returns a video search URL for the plant name.
func YoutubeSearchLink(name string) string {
	return "https://www.youtube.com/results?search_query=" + strings.ReplaceAll(name, " ", "+")
}

// WikipediaArticleLink returns the article URL guess for the plant name.
func WikipediaArticleLink(name string) string {
	return "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(name, " ", "_")
}

// FailedFetch records one URL that exhausted its retry budget.
type FailedFetch struct {
	URL       string `json:"url"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
	Attempts  int    `json:"attempts"`
}

// FailedReport is the persisted summary of permanently failed fetches.
type FailedReport struct {
	TotalFailed int           `json:"total_failed"`
	Timestamp   string        `json:"timestamp"`
	FailedLinks []FailedFetch `json:"failed_links"`
}

// MissingReport is the persisted summary of expected names the
// reconciliation pass could not match.
type MissingReport struct {
	TotalMissing  int      `json:"total_missing"`
	Timestamp     string   `json:"timestamp"`
	MissingPlants []string `json:"missing_plants"`
}
