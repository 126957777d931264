// Package topics loads and exposes the research topic configuration: the
// topic records themselves, named presets, exclusion terms, and the author
// allow/block lists used during triage. The registry is immutable after
// load.
package topics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Topic configuration column names. The loader matches columns by header so
// optional columns may be omitted entirely.
const (
	colName             = "name"
	colQueryFragment    = "query_fragment"
	colActive           = "active"
	colPriority         = "priority"
	colIntersectionWith = "intersection_with"
	colSynonyms         = "synonyms"
)

// listSeparator delimits multi-valued cells (intersection_with, synonyms,
// preset topic lists).
const listSeparator = ";"

// LoadTopicsFile reads topic records from a CSV file.
func LoadTopicsFile(path string) ([]domain.Topic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topics file: %w", err)
	}
	defer f.Close()

	return LoadTopics(f, path)
}

// LoadTopics reads topic records from CSV data. The first record must be a
// header row naming at least the name, query_fragment, active and priority
// columns; intersection_with and synonyms are optional.
func LoadTopics(r io.Reader, source string) ([]domain.Topic, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewConfigError(source, "missing header row")
	}

	cols, err := indexColumns(source, header, colName, colQueryFragment, colActive, colPriority)
	if err != nil {
		return nil, err
	}

	var topics []domain.Topic
	record := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewRecordConfigError(source, record+1, err.Error())
		}
		record++

		topic, err := parseTopicRow(source, record, cols, row)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}

	if len(topics) == 0 {
		return nil, domain.NewConfigError(source, "no topic records")
	}

	return topics, nil
}

// parseTopicRow converts one CSV row into a Topic.
func parseTopicRow(source string, record int, cols map[string]int, row []string) (domain.Topic, error) {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	name := cell(colName)
	if name == "" {
		return domain.Topic{}, domain.NewRecordConfigError(source, record, "empty topic name")
	}

	active, err := parseBoolCell(cell(colActive))
	if err != nil {
		return domain.Topic{}, domain.NewRecordConfigError(source, record,
			fmt.Sprintf("invalid active value for topic %q: %v", name, err))
	}

	priority, err := domain.ParsePriority(cell(colPriority))
	if err != nil {
		return domain.Topic{}, domain.NewRecordConfigError(source, record,
			fmt.Sprintf("invalid priority for topic %q: %v", name, err))
	}

	intersection := splitList(cell(colIntersectionWith))
	for _, ref := range intersection {
		if strings.EqualFold(ref, name) {
			return domain.Topic{}, domain.NewRecordConfigError(source, record,
				fmt.Sprintf("topic %q intersects with itself", name))
		}
	}

	return domain.Topic{
		Name:             name,
		QueryFragment:    cell(colQueryFragment),
		Synonyms:         splitList(cell(colSynonyms)),
		Active:           active,
		Priority:         priority,
		IntersectionWith: intersection,
	}, nil
}

// Preset configuration column names.
const (
	colPresetName       = "preset_name"
	colPresetTopics     = "topics"
	colPresetExclusions = "exclusions"
	colPresetDaysBack   = "days_back"
	colPresetMaxResults = "max_results"
)

// LoadPresetsFile reads preset records from a CSV file.
func LoadPresetsFile(path string) ([]domain.Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open presets file: %w", err)
	}
	defer f.Close()

	return LoadPresets(f, path)
}

// LoadPresets reads preset records from CSV data. Numeric override columns
// may be empty, meaning "use the pipeline variant default".
func LoadPresets(r io.Reader, source string) ([]domain.Preset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewConfigError(source, "missing header row")
	}

	cols, err := indexColumns(source, header, colPresetName, colPresetTopics)
	if err != nil {
		return nil, err
	}

	var presets []domain.Preset
	record := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewRecordConfigError(source, record+1, err.Error())
		}
		record++

		cell := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := cell(colPresetName)
		if name == "" {
			return nil, domain.NewRecordConfigError(source, record, "empty preset name")
		}
		if strings.EqualFold(name, domain.PresetAll) {
			return nil, domain.NewRecordConfigError(source, record,
				fmt.Sprintf("preset name %q is reserved", domain.PresetAll))
		}

		daysBack, err := parseIntCell(cell(colPresetDaysBack))
		if err != nil {
			return nil, domain.NewRecordConfigError(source, record,
				fmt.Sprintf("invalid days_back for preset %q: %v", name, err))
		}
		maxResults, err := parseIntCell(cell(colPresetMaxResults))
		if err != nil {
			return nil, domain.NewRecordConfigError(source, record,
				fmt.Sprintf("invalid max_results for preset %q: %v", name, err))
		}

		presets = append(presets, domain.Preset{
			Name:       name,
			TopicNames: splitList(cell(colPresetTopics)),
			Exclusions: splitList(cell(colPresetExclusions)),
			DaysBack:   daysBack,
			MaxResults: maxResults,
		})
	}

	return presets, nil
}

// indexColumns maps header names to positions and verifies required columns.
func indexColumns(source string, header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, domain.NewConfigError(source, fmt.Sprintf("missing required column %q", name))
		}
	}
	return cols, nil
}

// parseBoolCell accepts the boolean literals produced by common spreadsheet
// exports in addition to Go's.
func parseBoolCell(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.ToLower(s))
}

// parseIntCell parses an optional non-negative integer cell; empty means 0.
func parseIntCell(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// splitList splits a semicolon-delimited cell into trimmed, non-empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, listSeparator)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
