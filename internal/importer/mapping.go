// internal/importer/mapping.go
package importer

import (
	"strings"
	"unicode"
)

func normalizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, s)
}

// AutoMapFields guesses a mapping from file headers. A header matches a
// field when it contains the field key or label, or is contained in the
// key. Each field takes the first matching header; headers without any
// letters never match.
func AutoMapFields(headers []string) FieldMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	mapping := FieldMapping{}
	for _, f := range Fields {
		key := normalizeHeader(f.Key)
		label := normalizeHeader(f.Label)
		for i, h := range normalized {
			if h == "" {
				continue
			}
			if strings.Contains(h, key) || strings.Contains(h, label) || strings.Contains(key, h) {
				mapping[f.Key] = i
				break
			}
		}
	}
	return mapping
}

// MissingRequired lists required fields absent from mapping.
func MissingRequired(mapping FieldMapping) []string {
	var missing []string
	for _, key := range RequiredFields() {
		if _, ok := mapping[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// TemplateHeaders returns the column labels of the downloadable template.
func TemplateHeaders() []string {
	headers := make([]string, len(Fields))
	for i, f := range Fields {
		headers[i] = f.Label
	}
	return headers
}

// TemplateExampleRow returns a sample row aligned with TemplateHeaders.
func TemplateExampleRow() Row {
	return Row{
		"Netflix",
		"Entertainment",
		"Active",
		"Premium",
		"15.99",
		"Monthly",
		"2024-02-15",
		"Visa ****1234",
		"Family plan",
		"2024-01-10",
		"High",
		"",
	}
}
