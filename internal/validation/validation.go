// Package validation turns untrusted buyer payloads (JSON bodies, CSV and
// spreadsheet rows) into checked domain.BuyerFields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/buyerleads/domain"
)

// Input is a decoded JSON object. Numbers are expected as json.Number.
type Input map[string]interface{}

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && e.Valid()
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

var allowed = map[string][]string{
	"city":         names(domain.Cities),
	"propertyType": names(domain.PropertyTypes),
	"bhk":          names(domain.BHKs),
	"purpose":      names(domain.Purposes),
	"timeline":     names(domain.Timelines),
	"source":       names(domain.Sources),
	"status":       names(domain.Statuses),
}

// ValidateCreate decodes and checks a payload for a new buyer. Status defaults
// to New and tags to an empty list.
func ValidateCreate(in Input) (domain.BuyerFields, error) {
	var fields domain.BuyerFields
	problems := decode(&fields, in, false)
	if fields.Status == "" {
		fields.Status = domain.StatusNew
	}
	return check(fields, problems)
}

// ApplyPatch overlays the keys present in the payload onto current and checks
// the merged record, so cross-field rules see the final state.
func ApplyPatch(current domain.BuyerFields, in Input) (domain.BuyerFields, error) {
	fields := current.Clone()
	problems := decode(&fields, in, true)
	return check(fields, problems)
}

// Validate checks an already typed field set. An empty status means New.
func Validate(fields domain.BuyerFields) (domain.BuyerFields, error) {
	fields = fields.Clone()
	if fields.Status == "" {
		fields.Status = domain.StatusNew
	}
	return check(fields, nil)
}

func check(fields domain.BuyerFields, problems []domain.FieldError) (domain.BuyerFields, error) {
	normalize(&fields)

	failed := make(map[string]bool, len(problems))
	for _, p := range problems {
		failed[p.Path] = true
	}

	if err := validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fields, err
		}
		for _, fe := range verrs {
			if failed[fe.Field()] {
				continue
			}
			failed[fe.Field()] = true
			problems = append(problems, domain.FieldError{Path: fe.Field(), Message: message(fe)})
		}
	}

	if !failed["tags"] {
		if problem := checkTags(fields.Tags); problem != nil {
			problems = append(problems, *problem)
		}
	}
	if !failed["propertyType"] && !failed["bhk"] {
		if fields.PropertyType.RequiresBHK() && fields.BHK == nil {
			problems = append(problems, domain.FieldError{Path: "bhk", Message: "BHK is required for Apartment and Villa"})
		}
	}
	if !failed["budgetMin"] && !failed["budgetMax"] && fields.BudgetMin != nil && fields.BudgetMax != nil {
		if *fields.BudgetMin > *fields.BudgetMax {
			problems = append(problems, domain.FieldError{
				Path:    "budgetMax",
				Message: "Budget maximum must be greater than or equal to budget minimum",
			})
		}
	}

	if len(problems) > 0 {
		return fields, domain.NewValidationError(problems)
	}
	if !fields.PropertyType.RequiresBHK() {
		fields.BHK = nil
	}
	return fields, nil
}

// normalize trims every text field, folds CRLF in notes to LF and turns empty
// optional strings into absent values. Stored values then survive a CSV
// export and re-import unchanged.
func normalize(fields *domain.BuyerFields) {
	fields.FullName = strings.TrimSpace(fields.FullName)
	fields.Phone = strings.TrimSpace(fields.Phone)
	fields.City = domain.City(strings.TrimSpace(string(fields.City)))
	fields.PropertyType = domain.PropertyType(strings.TrimSpace(string(fields.PropertyType)))
	fields.Purpose = domain.Purpose(strings.TrimSpace(string(fields.Purpose)))
	fields.Timeline = domain.Timeline(strings.TrimSpace(string(fields.Timeline)))
	fields.Source = domain.Source(strings.TrimSpace(string(fields.Source)))
	fields.Status = domain.Status(strings.TrimSpace(string(fields.Status)))

	fields.Email = trimOptional(fields.Email)
	if fields.Notes != nil {
		notes := strings.ReplaceAll(*fields.Notes, "\r\n", "\n")
		fields.Notes = trimOptional(&notes)
	}
	if fields.BHK != nil {
		bhk := domain.BHK(strings.TrimSpace(string(*fields.BHK)))
		fields.BHK = &bhk
		if bhk == "" {
			fields.BHK = nil
		}
	}

	tags := make([]string, 0, len(fields.Tags))
	for _, tag := range fields.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	fields.Tags = tags
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// tagSeparators are reserved by the export format, which joins tags with ';'.
const tagSeparators = ",;"

func checkTags(tags []string) *domain.FieldError {
	for _, tag := range tags {
		if strings.ContainsAny(tag, tagSeparators) {
			return &domain.FieldError{Path: "tags", Message: fmt.Sprintf("Tag %q must not contain ',' or ';'", tag)}
		}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "fullName":
		if fe.Tag() == "max" {
			return "Full name must be at most 80 characters"
		}
		return "Full name must be at least 2 characters"
	case "email":
		return "Invalid email"
	case "phone":
		return "Phone must be 10-15 digits"
	case "notes":
		return "Notes must be at most 1000 characters"
	case "budgetMin", "budgetMax":
		return "Budget must be a positive number"
	}
	if fe.Tag() == "enum" {
		if fmt.Sprint(fe.Value()) == "" {
			return "Required"
		}
		return fmt.Sprintf("Invalid %s. Expected one of: %s", fe.Field(), strings.Join(allowed[fe.Field()], ", "))
	}
	return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
