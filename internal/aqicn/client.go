// Package aqicn resolves sensor coordinates from the api.waqi.info feeds.
package aqicn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ltumat/AirQualityPrediction/internal/registry"
)

var (
	// ErrUnexpectedStatus means an endpoint answered outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrUnexpectedResponse means a body that is neither a success payload
	// nor the unknown-station marker.
	ErrUnexpectedResponse = errors.New("unexpected feed response")
	// ErrEmptyPayload means the observation endpoint served no document.
	ErrEmptyPayload = errors.New("no payload returned")
	// ErrGeoMissing means no section of the payload carried a coordinate
	// pair.
	ErrGeoMissing = errors.New("missing geo coordinates in API payload")
)

// Client implements registry.Resolver against the AQICN API. With a token it
// walks the candidate feed URLs in priority order; without one, or when every
// candidate reports an unknown station, it falls back to the public
// observation document, which carries the same geo metadata unauthenticated.
//
// A non-2xx answer from any candidate fails the whole resolution rather than
// advancing the chain. Only the unknown-station marker advances it.
type Client struct {
	token      string
	httpClient *http.Client
	logger     *log.Logger

	// Overridable in tests.
	feedBase   string
	publicBase string
}

// NewClient creates a Client. An empty token skips the authenticated feed
// chain entirely.
func NewClient(token string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		feedBase:   DefaultFeedBase,
		publicBase: DefaultPublicBase,
	}
}

// Resolve fetches the sensor's AQICN payload and extracts its coordinate
// pair.
func (c *Client) Resolve(ctx context.Context, sensor registry.Sensor) (registry.Coordinates, error) {
	payload, err := c.fetchPayload(ctx, sensor)
	if err != nil {
		return registry.Coordinates{}, err
	}
	return extractCoordinates(payload)
}

func (c *Client) fetchPayload(ctx context.Context, sensor registry.Sensor) (*feedPayload, error) {
	if c.token != "" {
		for _, build := range feedCandidates {
			candidate := build(c.feedBase, sensor)
			payload, raw, err := c.getJSON(ctx, RequestURL(candidate, c.token), candidate)
			if err != nil {
				return nil, err
			}
			if payload.Status == "ok" {
				return payload, nil
			}
			if payload.unknownStation() {
				c.logger.Printf("DEBUG: %s: unknown station, trying next candidate", candidate)
				continue
			}
			return nil, fmt.Errorf("%w from %s: %s", ErrUnexpectedResponse, candidate, raw)
		}
	}

	obsURL := ObservationURL(sensor.AqicnURL, c.feedBase, c.publicBase)
	c.logger.Printf("DEBUG: falling back to observation document %s", obsURL)

	payload, raw, err := c.getJSON(ctx, obsURL, obsURL)
	if err != nil {
		return nil, err
	}
	if emptyDocument(raw) {
		return nil, fmt.Errorf("%w from %s", ErrEmptyPayload, obsURL)
	}
	if payload.Status == "error" {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, rawText(payload.Data))
	}
	return payload, nil
}

// getJSON fetches url and decodes the body. display is the token-free form
// of the URL used in errors.
func (c *Client) getJSON(ctx context.Context, url, display string) (*feedPayload, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request for %s: %w", display, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, display)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response from %s: %w", display, err)
	}

	payload := new(feedPayload)
	if !emptyDocument(raw) {
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, nil, fmt.Errorf("%w: decode %s: %v", ErrUnexpectedResponse, display, err)
		}
	}
	return payload, raw, nil
}

// feedPayload is the subset of the AQICN response shapes the resolver reads.
// The data section stays raw: station feeds put an object there, rejections a
// plain string.
type feedPayload struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Rxs    struct {
		Obs []struct {
			Msg struct {
				City struct {
					Geo []any `json:"geo"`
				} `json:"city"`
			} `json:"msg"`
		} `json:"obs"`
	} `json:"rxs"`
}

// unknownStation reports whether the feed answered with the marker body it
// serves when a station path does not exist.
func (p *feedPayload) unknownStation() bool {
	var marker string
	if err := json.Unmarshal(p.Data, &marker); err != nil {
		return false
	}
	return marker == "Unknown station"
}

// dataGeo returns the geo list of the data section when that section is an
// object.
func (p *feedPayload) dataGeo() []any {
	var section struct {
		City struct {
			Geo []any `json:"geo"`
		} `json:"city"`
	}
	if err := json.Unmarshal(p.Data, &section); err != nil {
		return nil
	}
	return section.City.Geo
}

// extractCoordinates pulls the coordinate pair out of a payload, preferring
// the feed's data.city.geo and falling back to the observation document's
// rxs.obs entries.
func extractCoordinates(payload *feedPayload) (registry.Coordinates, error) {
	if coords, ok := geoPair(payload.dataGeo()); ok {
		return coords, nil
	}
	for _, obs := range payload.Rxs.Obs {
		if coords, ok := geoPair(obs.Msg.City.Geo); ok {
			return coords, nil
		}
	}
	return registry.Coordinates{}, ErrGeoMissing
}

// geoPair interprets the first two geo elements as latitude and longitude.
// Feeds serve them as JSON numbers, observation documents occasionally as
// numeric strings.
func geoPair(geo []any) (registry.Coordinates, bool) {
	if len(geo) < 2 {
		return registry.Coordinates{}, false
	}
	lat, okLat := toFloat(geo[0])
	lon, okLon := toFloat(geo[1])
	if !okLat || !okLon {
		return registry.Coordinates{}, false
	}
	return registry.Coordinates{Latitude: lat, Longitude: lon}, true
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// emptyDocument reports whether the body is a JSON document with nothing in
// it, which the observation endpoint serves for stations it does not track.
func emptyDocument(raw []byte) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

// rawText renders a raw JSON value for error messages, unquoting plain
// strings.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
