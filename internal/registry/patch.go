package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ltumat/AirQualityPrediction/internal/common"
)

// Field declarations recognized by the line scanner. The registry is a YAML
// list of mappings, so a sensor block is anchored either by a list-item name
// line or a bare name line.
const (
	listNameKey  = "- name:"
	bareNameKey  = "name:"
	latitudeKey  = "latitude:"
	longitudeKey = "longitude:"
)

// PatchOptions configures coordinate formatting for document patches.
type PatchOptions struct {
	// Precision is the number of decimal places rendered before trailing
	// zeros are trimmed.
	Precision int
}

// DefaultPatchOptions returns the 6-decimal precision served by the AQICN
// feeds.
func DefaultPatchOptions() PatchOptions {
	return PatchOptions{Precision: 6}
}

// IncompletePatchError reports sensors whose latitude or longitude line was
// never found during a patch. Nothing has been written when it is returned.
type IncompletePatchError struct {
	Sensors []string
}

func (e *IncompletePatchError) Error() string {
	return fmt.Sprintf(
		"latitude/longitude lines not found for sensors: %s (the registry must already define these fields)",
		strings.Join(e.Sensors, ", "),
	)
}

// Patcher rewrites the latitude/longitude value lines of a registry document
// in place, leaving every other byte of the document untouched. The registry
// is hand-maintained and carries comments and formatting a generic YAML
// serializer would not reliably preserve, so updates are a targeted
// line-level patch.
type Patcher struct {
	opts PatchOptions
}

// NewPatcher creates a Patcher with the given options.
func NewPatcher(opts PatchOptions) *Patcher {
	return &Patcher{opts: opts}
}

// scanState tracks where the line scanner is relative to sensor blocks.
type scanState int

const (
	// stateSeekingSensor means no name line has been seen yet.
	stateSeekingSensor scanState = iota
	// stateInSensor means subsequent field lines belong to the sensor named
	// by the most recent name line.
	stateInSensor
)

// Apply rewrites the latitude and longitude lines of every sensor in updates
// and replaces the document atomically. Output lines equal input lines in
// number, indentation and line endings; only the targeted value lines change.
// If any update's latitude or longitude line is never matched, nothing is
// written and an *IncompletePatchError lists the affected sensors.
func (p *Patcher) Apply(path string, updates map[string]*CoordinateUpdate) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}

	lines := splitLinesKeepEnds(string(raw))
	patched := make([]string, 0, len(lines))

	state := stateSeekingSensor
	currentSensor := ""

	for _, line := range lines {
		body, ending := splitLineEnding(line)
		trimmed := strings.TrimSpace(body)

		if common.HasAnyPrefix(trimmed, listNameKey, bareNameKey) {
			_, value, _ := strings.Cut(trimmed, ":")
			currentSensor = stripQuotes(strings.TrimSpace(value))
			state = stateInSensor
		}

		if state == stateInSensor {
			if entry, ok := updates[currentSensor]; ok {
				indent := leadingWhitespace(body)
				if strings.HasPrefix(trimmed, latitudeKey) {
					patched = append(patched, indent+latitudeKey+" "+p.Format(entry.Latitude)+ending)
					entry.latWritten = true
					continue
				}
				if strings.HasPrefix(trimmed, longitudeKey) {
					patched = append(patched, indent+longitudeKey+" "+p.Format(entry.Longitude)+ending)
					entry.lonWritten = true
					continue
				}
			}
		}

		patched = append(patched, line)
	}

	var missing []string
	for name, entry := range updates {
		if !entry.latWritten || !entry.lonWritten {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &IncompletePatchError{Sensors: missing}
	}

	return writeFileAtomic(path, []byte(strings.Join(patched, "")))
}

// Format renders a coordinate at the configured precision with trailing
// zeros and a dangling decimal point trimmed, so 59.300000 becomes "59.3"
// and 18.000000 becomes "18".
func (p *Patcher) Format(v float64) string {
	text := strconv.FormatFloat(v, 'f', p.opts.Precision, 64)
	text = strings.TrimRight(text, "0")
	text = strings.TrimRight(text, ".")
	if text == "" {
		return "0"
	}
	return text
}

// splitLinesKeepEnds splits text into physical lines, each keeping its
// original ending (\n, \r\n or a lone \r). The final line may have none.
func splitLinesKeepEnds(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i+1])
			start = i + 1
		case '\r':
			end := i + 1
			if end < len(text) && text[end] == '\n' {
				end++
			}
			lines = append(lines, text[start:end])
			i = end - 1
			start = end
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// splitLineEnding separates a physical line into its body and trailing
// newline characters.
func splitLineEnding(line string) (body, ending string) {
	body = strings.TrimRight(line, "\r\n")
	return body, line[len(body):]
}

// leadingWhitespace returns the indentation prefix of body.
func leadingWhitespace(body string) string {
	return body[:len(body)-len(strings.TrimLeftFunc(body, unicode.IsSpace))]
}

// stripQuotes removes one layer of surrounding quote characters, matching
// how sensor names may be quoted in the registry.
func stripQuotes(s string) string {
	if len(s) >= 2 && isQuote(s[0]) && isQuote(s[len(s)-1]) {
		return s[1 : len(s)-1]
	}
	return s
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"'
}

// writeFileAtomic replaces the file at path with data via a rename, so a
// concurrent reader never observes a mix of old and new content.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp registry: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp registry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
