package dataset

import (
	"fmt"
	"strings"

	"nosecounter/internal/orderedmap"
)

// Breakdown maps a category label to its registration count.
type Breakdown = orderedmap.Map[int]

// YearlyDataset holds the registration statistics of one convention year.
type YearlyDataset struct {
	Year            int        `json:"Year"`
	Convention      string     `json:"Convention"`
	TotalCount      int        `json:"TotalCount"`
	Age             *Breakdown `json:"Age,omitempty"`
	Country         *Breakdown `json:"Country,omitempty"`
	Gender          *Breakdown `json:"Gender,omitempty"`
	Sponsor         *Breakdown `json:"Sponsor,omitempty"`
	ShirtSize       *Breakdown `json:"ShirtSize,omitempty"`
	SpecialInterest *Breakdown `json:"SpecialInterest,omitempty"`
	Status          *Breakdown `json:"Status,omitempty"`

	// Created maps an ISO timestamp to the registrations observed at that moment.
	// Only the live record of the current year carries it.
	Created *Breakdown `json:"Created,omitempty"`
}

// Field names a category breakdown of a YearlyDataset.
type Field string

const (
	FieldAge             Field = "Age"
	FieldCountry         Field = "Country"
	FieldGender          Field = "Gender"
	FieldSponsor         Field = "Sponsor"
	FieldShirtSize       Field = "ShirtSize"
	FieldSpecialInterest Field = "SpecialInterest"
	FieldStatus          Field = "Status"
)

// Fields lists every category breakdown in display order.
var Fields = []Field{
	FieldAge, FieldCountry, FieldGender, FieldSponsor,
	FieldShirtSize, FieldSpecialInterest, FieldStatus,
}

// ParseField resolves a field name case-insensitively.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// Breakdown returns the named category breakdown. A missing breakdown yields an empty one.
func (d *YearlyDataset) Breakdown(f Field) *Breakdown {
	var b *Breakdown
	switch f {
	case FieldAge:
		b = d.Age
	case FieldCountry:
		b = d.Country
	case FieldGender:
		b = d.Gender
	case FieldSponsor:
		b = d.Sponsor
	case FieldShirtSize:
		b = d.ShirtSize
	case FieldSpecialInterest:
		b = d.SpecialInterest
	case FieldStatus:
		b = d.Status
	}
	if b == nil {
		return orderedmap.New[int]()
	}
	return b
}

// Label is the cross-year series label, e.g. "Eurofurence (2017)".
func (d *YearlyDataset) Label() string {
	return fmt.Sprintf("%s (%d)", d.Convention, d.Year)
}

// Sum adds up all counts of a breakdown.
func Sum(b *Breakdown) int {
	total := 0
	for _, v := range b.All() {
		total += v
	}
	return total
}
