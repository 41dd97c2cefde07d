package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/buyerleads/domain"
)

func input(t *testing.T, raw string) Input {
	t.Helper()
	var in Input
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&in))
	return in
}

func problems(err error) map[string]string {
	out := map[string]string{}
	for _, fe := range domain.FieldErrors(err) {
		out[fe.Path] = fe.Message
	}
	return out
}

const validBuyer = `{
	"fullName": "Asha Verma",
	"email": "asha@example.com",
	"phone": "9876543210",
	"city": "Mohali",
	"propertyType": "Apartment",
	"bhk": "2",
	"purpose": "Buy",
	"budgetMin": 5000000,
	"budgetMax": 6000000,
	"timeline": "0-3m",
	"source": "Website"
}`

func TestValidateCreate_AppliesDefaults(t *testing.T) {
	fields, err := ValidateCreate(input(t, validBuyer))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, fields.Status)
	assert.Equal(t, []string{}, fields.Tags)
	assert.Equal(t, int64(5000000), *fields.BudgetMin)
	assert.Nil(t, fields.Notes)
}

func TestValidateCreate_ReportsEveryViolation(t *testing.T) {
	_, err := ValidateCreate(input(t, `{
		"fullName": "A",
		"email": "not-an-email",
		"phone": "12ab",
		"city": "Delhi",
		"propertyType": "Villa",
		"purpose": "Buy",
		"budgetMin": 9,
		"budgetMax": 5,
		"source": "Website",
		"tags": "hot"
	}`))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	got := problems(err)
	assert.Equal(t, "Full name must be at least 2 characters", got["fullName"])
	assert.Equal(t, "Invalid email", got["email"])
	assert.Equal(t, "Phone must be 10-15 digits", got["phone"])
	assert.Equal(t, "Invalid city. Expected one of: Chandigarh, Mohali, Zirakpur, Panchkula, Other", got["city"])
	assert.Equal(t, "BHK is required for Apartment and Villa", got["bhk"])
	assert.Equal(t, "Budget maximum must be greater than or equal to budget minimum", got["budgetMax"])
	assert.Equal(t, "Required", got["timeline"])
	assert.Equal(t, "Expected array, received string", got["tags"])
}

func TestValidateCreate_RejectsWrongTypes(t *testing.T) {
	in := input(t, validBuyer)
	in["budgetMin"] = "five"
	in["fullName"] = json.Number("42")
	in["budgetMax"] = json.Number("1.5")

	got := problems(func() error { _, err := ValidateCreate(in); return err }())
	assert.Equal(t, "Expected number, received string", got["budgetMin"])
	assert.Equal(t, "Expected string, received number", got["fullName"])
	assert.Equal(t, "Expected integer, received 1.5", got["budgetMax"])
}

func TestValidateCreate_DropsBHKForNonResidential(t *testing.T) {
	in := input(t, validBuyer)
	in["propertyType"] = "Office"
	fields, err := ValidateCreate(in)
	require.NoError(t, err)
	assert.Nil(t, fields.BHK)
}

func TestApplyPatch_ChecksMergedRecord(t *testing.T) {
	current, err := ValidateCreate(input(t, validBuyer))
	require.NoError(t, err)

	merged, err := ApplyPatch(current, input(t, `{"status":"Visited","notes":"prefers corner units"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVisited, merged.Status)
	assert.Equal(t, "prefers corner units", *merged.Notes)
	assert.Equal(t, current.Phone, merged.Phone)
	assert.Equal(t, domain.StatusNew, current.Status, "the input is not mutated")

	_, err = ApplyPatch(current, input(t, `{"budgetMax": 100}`))
	assert.Contains(t, problems(err), "budgetMax")

	_, err = ApplyPatch(current, input(t, `{"bhk": null}`))
	assert.Equal(t, "BHK is required for Apartment and Villa", problems(err)["bhk"])

	cleared, err := ApplyPatch(current, input(t, `{"email": "", "budgetMin": null}`))
	require.NoError(t, err)
	assert.Nil(t, cleared.Email)
	assert.Nil(t, cleared.BudgetMin)
}

func TestValidateRow_ParsesSpreadsheetCells(t *testing.T) {
	fields, err := ValidateRow(map[string]string{
		"fullName":     "  Ravi Kumar ",
		"phone":        "9876501234",
		"city":         "Zirakpur",
		"propertyType": "Plot",
		"bhk":          "3",
		"purpose":      "Rent",
		"budgetMin":    "",
		"budgetMax":    "2500000",
		"timeline":     ">6m",
		"source":       "Walk-in",
		"tags":         "corner; park-facing,,urgent",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", fields.FullName)
	assert.Nil(t, fields.BudgetMin)
	assert.Equal(t, int64(2500000), *fields.BudgetMax)
	assert.Nil(t, fields.BHK)
	assert.Equal(t, []string{"corner", "park-facing", "urgent"}, fields.Tags)

	_, err = ValidateRow(map[string]string{"fullName": "Ravi Kumar", "budgetMin": "lots"})
	assert.Equal(t, "Expected number, received string", problems(err)["budgetMin"])
}

func TestValidateCreate_NormalizesTextForExport(t *testing.T) {
	in := input(t, validBuyer)
	in["fullName"] = "  Padded Name "
	in["notes"] = "line1\r\nline2 "
	in["city"] = " Mohali"
	in["tags"] = []interface{}{" x", "", "y "}

	fields, err := ValidateCreate(in)
	require.NoError(t, err)
	assert.Equal(t, "Padded Name", fields.FullName)
	assert.Equal(t, "line1\nline2", *fields.Notes)
	assert.Equal(t, domain.CityMohali, fields.City)
	assert.Equal(t, []string{"x", "y"}, fields.Tags)

	row, err := ValidateRow(map[string]string{
		"fullName": "  Padded Name ", "phone": "9876543210", "city": " Mohali",
		"propertyType": "Apartment", "bhk": "2", "purpose": "Buy",
		"budgetMin": "5000000", "budgetMax": "6000000", "timeline": "0-3m",
		"source": "Website", "email": "asha@example.com",
		"notes": "line1\nline2", "tags": " x;y ",
	})
	require.NoError(t, err)
	assert.Equal(t, fields, row)
}

func TestValidateCreate_RejectsSeparatorsInTags(t *testing.T) {
	for _, tag := range []string{"a;b", "c,d"} {
		in := input(t, validBuyer)
		in["tags"] = []interface{}{"ok", tag}
		_, err := ValidateCreate(in)
		require.Error(t, err, tag)
		assert.Contains(t, problems(err)["tags"], "must not contain")
	}

	current, err := ValidateCreate(input(t, validBuyer))
	require.NoError(t, err)
	_, err = ApplyPatch(current, input(t, `{"tags":["first;second"]}`))
	assert.Contains(t, problems(err), "tags")
}
