package match

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a loosely structured profile or job document. All fields are
// optional; absent fields are simply left out of the projection.
type Record map[string]any

// Field maps a record key to the label it is rendered under. Suffix, when
// set, is appended to the rendered value.
type Field struct {
	Key    string
	Label  string
	Suffix string
}

// ProfileFields is the fixed projection order for candidate profiles.
var ProfileFields = []Field{
	{Key: "skills", Label: "Skills"},
	{Key: "experience_years", Label: "Experience", Suffix: " years"},
	{Key: "education", Label: "Education"},
	{Key: "bio", Label: "Bio"},
	{Key: "location", Label: "Location"},
}

// JobFields is the fixed projection order for job postings.
var JobFields = []Field{
	{Key: "title", Label: "Title"},
	{Key: "description", Label: "Description"},
	{Key: "requirements", Label: "Requirements"},
	{Key: "skills_required", Label: "Skills"},
	{Key: "experience_level", Label: "Experience Level"},
	{Key: "location", Label: "Location"},
}

const segmentSeparator = " | "

// Project renders the record into a flat "Label: value" string with fields
// in the given order, skipping absent or empty values. Projection is
// deterministic: identical records yield byte-identical strings.
func Project(record Record, fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		value, ok := record[field.Key]
		if !ok {
			continue
		}

		rendered := formatValue(value)
		if rendered == "" {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s: %s%s", field.Label, rendered, field.Suffix))
	}

	return strings.Join(parts, segmentSeparator)
}

// formatValue converts a field value to its projected form. Empty strings,
// nils, zero numbers and false are treated as absent.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return formatValue(float64(v))
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		return formatValue(int(v))
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
