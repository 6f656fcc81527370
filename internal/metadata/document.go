package metadata

import (
	"encoding/json"
	"strings"
)

// Trait names read from a metadata document's attribute list.
const (
	TraitInstitution = "Institution"
	TraitStudentName = "Student name"
	TraitStartDate   = "Start date"
	TraitEndDate     = "End date"
	TraitProgramme   = "Programme"
)

// Document is the JSON served at a token URI.
type Document struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
}

// Attribute is one {trait_type, value} pair. Value is kept raw because
// documents in the wild carry strings, numbers and dates alike.
type Attribute struct {
	TraitType string          `json:"trait_type"`
	Value     json.RawMessage `json:"value"`
}

// Attributes are the diploma traits a document may carry. A nil field means
// the trait was absent.
type Attributes struct {
	Institution *string `json:"institution,omitempty"`
	StudentName *string `json:"studentName,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Programme   *string `json:"programme,omitempty"`
}

// ExtractAttributes looks up the known traits by exact name. When a trait is
// repeated the first occurrence wins. doc is not modified.
func ExtractAttributes(doc *Document) Attributes {
	if doc == nil {
		return Attributes{}
	}
	table := make(map[string]string, len(doc.Attributes))
	for _, attr := range doc.Attributes {
		if _, seen := table[attr.TraitType]; seen {
			continue
		}
		table[attr.TraitType] = valueString(attr.Value)
	}

	lookup := func(trait string) *string {
		v, ok := table[trait]
		if !ok {
			return nil
		}
		return &v
	}
	return Attributes{
		Institution: lookup(TraitInstitution),
		StudentName: lookup(TraitStudentName),
		StartDate:   lookup(TraitStartDate),
		EndDate:     lookup(TraitEndDate),
		Programme:   lookup(TraitProgramme),
	}
}

// valueString renders a raw trait value: strings unquoted, anything else as
// its JSON text.
func valueString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
