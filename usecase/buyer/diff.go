package buyer

import (
	"reflect"

	"github.com/fastygo/buyerleads/domain"
)

type trackedField struct {
	name  string
	value func(f *domain.BuyerFields) interface{}
}

// trackedFields lists every field whose change is written to the history log.
var trackedFields = []trackedField{
	{"fullName", func(f *domain.BuyerFields) interface{} { return f.FullName }},
	{"email", func(f *domain.BuyerFields) interface{} { return deref(f.Email) }},
	{"phone", func(f *domain.BuyerFields) interface{} { return f.Phone }},
	{"city", func(f *domain.BuyerFields) interface{} { return string(f.City) }},
	{"propertyType", func(f *domain.BuyerFields) interface{} { return string(f.PropertyType) }},
	{"bhk", func(f *domain.BuyerFields) interface{} { return deref(f.BHK) }},
	{"purpose", func(f *domain.BuyerFields) interface{} { return string(f.Purpose) }},
	{"budgetMin", func(f *domain.BuyerFields) interface{} { return deref(f.BudgetMin) }},
	{"budgetMax", func(f *domain.BuyerFields) interface{} { return deref(f.BudgetMax) }},
	{"timeline", func(f *domain.BuyerFields) interface{} { return string(f.Timeline) }},
	{"source", func(f *domain.BuyerFields) interface{} { return string(f.Source) }},
	{"status", func(f *domain.BuyerFields) interface{} { return string(f.Status) }},
	{"notes", func(f *domain.BuyerFields) interface{} { return deref(f.Notes) }},
	{"tags", func(f *domain.BuyerFields) interface{} {
		if f.Tags == nil {
			return []string{}
		}
		return append([]string{}, f.Tags...)
	}},
}

// Diff compares the tracked fields structurally and returns only those that
// differ. Absent optional values are reported as null.
func Diff(before, after domain.BuyerFields) map[string]domain.FieldChange {
	changes := make(map[string]domain.FieldChange)
	for _, field := range trackedFields {
		oldValue, newValue := field.value(&before), field.value(&after)
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes[field.name] = domain.FieldChange{Old: oldValue, New: newValue}
	}
	return changes
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	switch v := any(*p).(type) {
	case domain.BHK:
		return string(v)
	default:
		return v
	}
}
