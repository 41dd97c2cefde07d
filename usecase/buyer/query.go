package buyer

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/repository"
)

// ListQuery is the caller-facing filter of the buyer list and export.
type ListQuery struct {
	Search       string
	City         domain.City
	PropertyType domain.PropertyType
	Status       domain.Status
	Timeline     domain.Timeline
	Mine         bool
	Page         int
	SortBy       repository.BuyerSort
	Descending   bool
}

// ParseListQuery reads list parameters from a query string. Unknown sort
// values fall back to the defaults; unknown filter values are rejected.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Search:     strings.TrimSpace(values.Get("search")),
		Page:       1,
		SortBy:     repository.SortUpdatedAt,
		Descending: true,
	}

	var problems []domain.FieldError
	if v := values.Get("city"); v != "" {
		q.City = domain.City(v)
		if !q.City.Valid() {
			problems = append(problems, domain.FieldError{Path: "city", Message: "Invalid city filter"})
		}
	}
	if v := values.Get("propertyType"); v != "" {
		q.PropertyType = domain.PropertyType(v)
		if !q.PropertyType.Valid() {
			problems = append(problems, domain.FieldError{Path: "propertyType", Message: "Invalid propertyType filter"})
		}
	}
	if v := values.Get("status"); v != "" {
		q.Status = domain.Status(v)
		if !q.Status.Valid() {
			problems = append(problems, domain.FieldError{Path: "status", Message: "Invalid status filter"})
		}
	}
	if v := values.Get("timeline"); v != "" {
		q.Timeline = domain.Timeline(v)
		if !q.Timeline.Valid() {
			problems = append(problems, domain.FieldError{Path: "timeline", Message: "Invalid timeline filter"})
		}
	}
	if len(problems) > 0 {
		return q, domain.NewValidationError(problems)
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	switch repository.BuyerSort(values.Get("sortBy")) {
	case repository.SortCreatedAt:
		q.SortBy = repository.SortCreatedAt
	case repository.SortFullName:
		q.SortBy = repository.SortFullName
	}
	if strings.EqualFold(values.Get("sortOrder"), "asc") {
		q.Descending = false
	}
	q.Mine, _ = strconv.ParseBool(values.Get("mine"))
	return q, nil
}

func (q ListQuery) filter(ownerID string) repository.BuyerFilter {
	return repository.BuyerFilter{
		Search:       q.Search,
		City:         q.City,
		PropertyType: q.PropertyType,
		Status:       q.Status,
		Timeline:     q.Timeline,
		OwnerID:      ownerID,
		SortBy:       q.SortBy,
		Descending:   q.Descending,
	}
}
