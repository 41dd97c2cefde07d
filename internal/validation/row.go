package validation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fastygo/buyerleads/domain"
)

// ValidateRow checks one spreadsheet row keyed by header name. Cells are
// trimmed, budgets are parsed from text and tags are split on ',' or ';'.
func ValidateRow(row map[string]string) (domain.BuyerFields, error) {
	in := make(Input, len(row))
	for key, value := range row {
		value = strings.TrimSpace(value)
		switch key {
		case "budgetMin", "budgetMax":
			if value == "" {
				in[key] = nil
				continue
			}
			if _, err := strconv.ParseInt(value, 10, 64); err == nil {
				in[key] = json.Number(value)
				continue
			}
			in[key] = value
		case "tags":
			in[key] = SplitTags(value)
		default:
			in[key] = value
		}
	}
	return ValidateCreate(in)
}

// SplitTags splits a tag cell. Both separators are accepted because exports
// join tags with ';' while hand-written files tend to use ','.
func SplitTags(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
