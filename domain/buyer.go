package domain

// City is where the buyer is looking for property.
type City string

const (
	CityChandigarh City = "Chandigarh"
	CityMohali     City = "Mohali"
	CityZirakpur   City = "Zirakpur"
	CityPanchkula  City = "Panchkula"
	CityOther      City = "Other"
)

var Cities = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}

func (c City) Valid() bool { return contains(Cities, c) }

type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyVilla     PropertyType = "Villa"
	PropertyPlot      PropertyType = "Plot"
	PropertyOffice    PropertyType = "Office"
	PropertyRetail    PropertyType = "Retail"
)

var PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}

func (p PropertyType) Valid() bool { return contains(PropertyTypes, p) }

// RequiresBHK reports whether a bedroom count is mandatory for the property type.
func (p PropertyType) RequiresBHK() bool {
	return p == PropertyApartment || p == PropertyVilla
}

type BHK string

const (
	BHK1      BHK = "1"
	BHK2      BHK = "2"
	BHK3      BHK = "3"
	BHK4      BHK = "4"
	BHKStudio BHK = "Studio"
)

var BHKs = []BHK{BHK1, BHK2, BHK3, BHK4, BHKStudio}

func (b BHK) Valid() bool { return contains(BHKs, b) }

type Purpose string

const (
	PurposeBuy  Purpose = "Buy"
	PurposeRent Purpose = "Rent"
)

var Purposes = []Purpose{PurposeBuy, PurposeRent}

func (p Purpose) Valid() bool { return contains(Purposes, p) }

type Timeline string

const (
	Timeline0To3     Timeline = "0-3m"
	Timeline3To6     Timeline = "3-6m"
	TimelineOver6    Timeline = ">6m"
	TimelineExplorer Timeline = "Exploring"
)

var Timelines = []Timeline{Timeline0To3, Timeline3To6, TimelineOver6, TimelineExplorer}

func (t Timeline) Valid() bool { return contains(Timelines, t) }

type Source string

const (
	SourceWebsite  Source = "Website"
	SourceReferral Source = "Referral"
	SourceWalkIn   Source = "Walk-in"
	SourceCall     Source = "Call"
	SourceOther    Source = "Other"
)

var Sources = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}

func (s Source) Valid() bool { return contains(Sources, s) }

// Status tracks the lead through the sales funnel.
type Status string

const (
	StatusNew         Status = "New"
	StatusQualified   Status = "Qualified"
	StatusContacted   Status = "Contacted"
	StatusVisited     Status = "Visited"
	StatusNegotiation Status = "Negotiation"
	StatusConverted   Status = "Converted"
	StatusDropped     Status = "Dropped"
)

var Statuses = []Status{
	StatusNew, StatusQualified, StatusContacted, StatusVisited,
	StatusNegotiation, StatusConverted, StatusDropped,
}

func (s Status) Valid() bool { return contains(Statuses, s) }

// BuyerFields is the caller-editable part of a lead. Every field here is
// tracked by the change history.
type BuyerFields struct {
	FullName     string       `json:"fullName" validate:"min=2,max=80"`
	Email        *string      `json:"email" validate:"omitempty,email"`
	Phone        string       `json:"phone" validate:"phone"`
	City         City         `json:"city" validate:"enum"`
	PropertyType PropertyType `json:"propertyType" validate:"enum"`
	BHK          *BHK         `json:"bhk" validate:"omitempty,enum"`
	Purpose      Purpose      `json:"purpose" validate:"enum"`
	BudgetMin    *int64       `json:"budgetMin" validate:"omitempty,gt=0"`
	BudgetMax    *int64       `json:"budgetMax" validate:"omitempty,gt=0"`
	Timeline     Timeline     `json:"timeline" validate:"enum"`
	Source       Source       `json:"source" validate:"enum"`
	Status       Status       `json:"status" validate:"enum"`
	Notes        *string      `json:"notes" validate:"omitempty,max=1000"`
	Tags         []string     `json:"tags"`
}

// Buyer is a stored lead record.
type Buyer struct {
	ID string `json:"id"`
	BuyerFields
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"ownerName,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without aliasing pointers.
func (b *Buyer) Clone() *Buyer {
	if b == nil {
		return nil
	}
	out := *b
	out.BuyerFields = b.BuyerFields.Clone()
	return &out
}

// Clone deep-copies the optional and list fields.
func (f BuyerFields) Clone() BuyerFields {
	out := f
	out.Email = cloneptr(f.Email)
	out.BHK = cloneptr(f.BHK)
	out.BudgetMin = cloneptr(f.BudgetMin)
	out.BudgetMax = cloneptr(f.BudgetMax)
	out.Notes = cloneptr(f.Notes)
	out.Tags = append([]string{}, f.Tags...)
	return out
}

func cloneptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
