// Package fhir projects a sensor reading into FHIR Observation resources
// bundled as a collection, using plain structs with LOINC-coded fields
// rather than a client library.
package fhir

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Coding is a LOINC-coded measurement identifier.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// CodeableConcept wraps one or more Codings, as FHIR requires.
type CodeableConcept struct {
	Coding []Coding `json:"coding"`
	Text   string   `json:"text,omitempty"`
}

// Quantity is a FHIR valueQuantity.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	System string `json:"system"`
	Code  string  `json:"code"`
}

// Reference is a FHIR local reference, e.g. "Device/abc".
type Reference struct {
	Reference string `json:"reference"`
}

// Observation is the minimal FHIR Observation resource this service emits.
type Observation struct {
	ResourceType        string          `json:"resourceType"`
	ID                   string          `json:"id"`
	Status               string          `json:"status"`
	Code                 CodeableConcept `json:"code"`
	EffectiveDateTime    string          `json:"effectiveDateTime"`
	ValueQuantity        Quantity        `json:"valueQuantity"`
	Device               Reference       `json:"device"`
	Subject              *Reference      `json:"subject,omitempty"`
}

// BundleEntry wraps one resource in a Bundle, per the FHIR collection shape.
type BundleEntry struct {
	Resource Observation `json:"resource"`
}

// Meta carries the organization tag stamped on every bundle.
type Meta struct {
	Tag []Coding `json:"tag"`
}

// Bundle is the collection of Observations produced for one reading, or
// concatenated across readings for /api/fhir/export.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	ID           string        `json:"id"`
	Timestamp    string        `json:"timestamp"`
	Meta         Meta          `json:"meta"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

const (
	loincHeartRate   = "8867-4"
	loincSpO2        = "2708-6"
	loincTemperature = "8310-5"
)

// Reading is the subset of a sensor reading the projector needs.
type Reading struct {
	HeartRate   *int
	SpO2        *int
	Temperature *float64
	ReadingAt   time.Time
	DeviceID    string
	SubjectID   string
}

// newIDFunc lets tests control id generation; the exported functions use uuid.NewString.
type newIDFunc func() string

var defaultNewID newIDFunc = uuid.NewString

// ProjectObservations produces one Observation per present vital.
func ProjectObservations(r Reading) []Observation {
	return projectObservations(r, defaultNewID)
}

func projectObservations(r Reading, newID newIDFunc) []Observation {
	var subject *Reference
	if r.SubjectID != "" {
		subject = &Reference{Reference: "Patient/" + r.SubjectID}
	}
	effective := r.ReadingAt.UTC().Format(time.RFC3339)
	device := Reference{Reference: "Device/" + r.DeviceID}

	var obs []Observation
	if r.HeartRate != nil {
		obs = append(obs, Observation{
			ResourceType: "Observation",
			ID:           newID(),
			Status:       "final",
			Code: CodeableConcept{Coding: []Coding{{
				System: "http://loinc.org", Code: loincHeartRate, Display: "Heart rate",
			}}},
			EffectiveDateTime: effective,
			ValueQuantity:     Quantity{Value: float64(*r.HeartRate), Unit: "beats/minute", System: "http://unitsofmeasure.org", Code: "/min"},
			Device:            device,
			Subject:           subject,
		})
	}
	if r.SpO2 != nil {
		obs = append(obs, Observation{
			ResourceType: "Observation",
			ID:           newID(),
			Status:       "final",
			Code: CodeableConcept{Coding: []Coding{{
				System: "http://loinc.org", Code: loincSpO2, Display: "Oxygen saturation in Arterial blood",
			}}},
			EffectiveDateTime: effective,
			ValueQuantity:     Quantity{Value: float64(*r.SpO2), Unit: "%", System: "http://unitsofmeasure.org", Code: "%"},
			Device:            device,
			Subject:           subject,
		})
	}
	if r.Temperature != nil {
		obs = append(obs, Observation{
			ResourceType: "Observation",
			ID:           newID(),
			Status:       "final",
			Code: CodeableConcept{Coding: []Coding{{
				System: "http://loinc.org", Code: loincTemperature, Display: "Body temperature",
			}}},
			EffectiveDateTime: effective,
			ValueQuantity:     Quantity{Value: *r.Temperature, Unit: "Cel", System: "http://unitsofmeasure.org", Code: "Cel"},
			Device:            device,
			Subject:           subject,
		})
	}
	return obs
}

// WrapBundle wraps observations in a collection Bundle tagged with the
// configured organization id.
func WrapBundle(observations []Observation, organizationID string) Bundle {
	return wrapBundle(observations, organizationID, defaultNewID, time.Now())
}

func wrapBundle(observations []Observation, organizationID string, newID newIDFunc, now time.Time) Bundle {
	entries := make([]BundleEntry, 0, len(observations))
	for _, o := range observations {
		entries = append(entries, BundleEntry{Resource: o})
	}
	return Bundle{
		ResourceType: "Bundle",
		Type:         "collection",
		ID:           newID(),
		Timestamp:    now.UTC().Format(time.RFC3339),
		Meta:         Meta{Tag: []Coding{{System: "urn:medhealth:organization", Code: organizationID}}},
		Total:        len(entries),
		Entry:        entries,
	}
}

// Marshal serializes a Bundle for persistence or the export response.
func Marshal(b Bundle) (string, error) {
	buf, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
