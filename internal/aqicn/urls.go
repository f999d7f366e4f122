package aqicn

import (
	"fmt"
	"strings"

	"github.com/ltumat/AirQualityPrediction/internal/registry"
)

// Endpoint bases on api.waqi.info. The public base serves unauthenticated
// observation documents for the same stations as the token-gated feed.
const (
	DefaultFeedBase   = "https://api.waqi.info/feed"
	DefaultPublicBase = "https://api.waqi.info/api/feed"
)

// CandidateBuilder produces one station feed URL for a sensor.
type CandidateBuilder func(base string, sensor registry.Sensor) string

// StoredFeedURL returns the feed URL recorded on the sensor itself.
func StoredFeedURL(_ string, sensor registry.Sensor) string {
	return sensor.AqicnURL
}

// CountryStreetURL builds the two-segment station path.
func CountryStreetURL(base string, sensor registry.Sensor) string {
	return fmt.Sprintf("%s/%s/%s", base, sensor.Country, sensor.Street)
}

// CountryCityStreetURL builds the three-segment station path.
func CountryCityStreetURL(base string, sensor registry.Sensor) string {
	return fmt.Sprintf("%s/%s/%s/%s", base, sensor.Country, sensor.City, sensor.Street)
}

// feedCandidates is the fixed priority order for authenticated lookups: the
// stored feed URL first, then the station paths derived from the address
// fields.
var feedCandidates = []CandidateBuilder{
	StoredFeedURL,
	CountryStreetURL,
	CountryCityStreetURL,
}

// RequestURL appends the token query to a candidate feed URL.
func RequestURL(candidate, token string) string {
	return candidate + "/?token=" + token
}

// ObservationURL derives the unauthenticated observation document URL from a
// stored feed URL: the feed base path is swapped for the public one and an
// /obs.en.json suffix is ensured. The substitution is scheme-agnostic so both
// http and https registry entries rewrite.
func ObservationURL(feedURL, feedBase, publicBase string) string {
	obs := strings.Replace(feedURL, schemeless(feedBase)+"/", schemeless(publicBase)+"/", 1)
	if !strings.HasSuffix(obs, "/obs.en.json") {
		obs = strings.TrimRight(obs, "/") + "/obs.en.json"
	}
	return obs
}

// schemeless trims the scheme from a base URL, keeping the "://" separator so
// the substitution never matches inside a path segment.
func schemeless(base string) string {
	if i := strings.Index(base, "://"); i >= 0 {
		return base[i:]
	}
	return base
}
