package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/fastygo/buyerleads/domain"
)

type setter func(fields *domain.BuyerFields, raw interface{}) error

type typeError struct {
	expected string
	raw      interface{}
}

func (e typeError) Error() string {
	return fmt.Sprintf("Expected %s, received %s", e.expected, kindOf(e.raw))
}

// fieldOrder fixes the order in which decode problems are reported.
var fieldOrder = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "status", "notes", "tags",
}

var setters = map[string]setter{
	"fullName": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.FullName = v
		return err
	},
	"email": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := optionalString(raw)
		f.Email = v
		return err
	},
	"phone": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.Phone = v
		return err
	},
	"city": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.City = domain.City(v)
		return err
	},
	"propertyType": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.PropertyType = domain.PropertyType(v)
		return err
	},
	"bhk": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := optionalString(raw)
		if v == nil {
			f.BHK = nil
			return err
		}
		bhk := domain.BHK(*v)
		f.BHK = &bhk
		return err
	},
	"purpose": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.Purpose = domain.Purpose(v)
		return err
	},
	"budgetMin": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := optionalInt(raw)
		f.BudgetMin = v
		return err
	},
	"budgetMax": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := optionalInt(raw)
		f.BudgetMax = v
		return err
	},
	"timeline": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.Timeline = domain.Timeline(v)
		return err
	},
	"source": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		f.Source = domain.Source(v)
		return err
	},
	"status": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := requiredString(raw)
		if v != "" {
			f.Status = domain.Status(v)
		}
		return err
	},
	"notes": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := optionalString(raw)
		f.Notes = v
		return err
	},
	"tags": func(f *domain.BuyerFields, raw interface{}) error {
		v, err := stringList(raw)
		f.Tags = v
		return err
	},
}

// decode copies the payload into fields. With onlyPresent set, keys missing
// from the payload leave the current value untouched.
func decode(fields *domain.BuyerFields, in Input, onlyPresent bool) []domain.FieldError {
	var problems []domain.FieldError
	for _, name := range fieldOrder {
		raw, ok := in[name]
		if !ok && onlyPresent {
			continue
		}
		if err := setters[name](fields, raw); err != nil {
			problems = append(problems, domain.FieldError{Path: name, Message: err.Error()})
		}
	}
	return problems
}

func requiredString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", typeError{expected: "string", raw: raw}
	}
}

func optionalString(raw interface{}) (*string, error) {
	v, err := requiredString(raw)
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}

func optionalInt(raw interface{}) (*int64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return nil, typeError{expected: "number", raw: raw}
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("Expected integer, received %s", v.String())
		}
		return &n, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("Expected integer, received %v", v)
		}
		n := int64(v)
		return &n, nil
	case int64:
		return &v, nil
	case int:
		n := int64(v)
		return &n, nil
	default:
		return nil, typeError{expected: "number", raw: raw}
	}
}

func stringList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return []string{}, typeError{expected: "array of strings", raw: raw}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return []string{}, typeError{expected: "array", raw: raw}
	}
}

func kindOf(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case []interface{}, []string:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return strings.ToLower(fmt.Sprintf("%T", v))
	}
}
