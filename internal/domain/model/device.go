// Package model contains domain records passed between pipeline layers.
package model

// DeviceType separates the two scored form factors. True-wireless devices
// are excluded before a record is ever built.
type DeviceType string

const (
	TypeIEM       DeviceType = "iem"
	TypeHeadphone DeviceType = "headphone"
)

// Rig identifies the measurement apparatus a curve was captured on.
type Rig string

const (
	Rig711  Rig = "711"
	Rig5128 Rig = "5128"
)

// Pinna identifies the simulated-ear attachment for over-ear rigs.
type Pinna string

const (
	PinnaKB5    Pinna = "kb5"
	PinnaKB0065 Pinna = "kb0065"
	Pinna5128   Pinna = "5128"
	PinnaNone   Pinna = ""
)

// Quality flags measurements from the curated high-trust domain list.
type Quality string

const (
	QualityHigh Quality = "high"
	QualityLow  Quality = "low"
)

// Device is one catalog entry resolved to a measurable device.
// Identity key is Domain + "::" + FileName.
type Device struct {
	Domain   string     `json:"domain"`
	FileName string     `json:"fileName"`
	Name     string     `json:"name"`
	Price    *float64   `json:"price,omitempty"`
	Quality  Quality    `json:"quality"`
	Type     DeviceType `json:"type"`
	Rig      Rig        `json:"rig"`
	Pinna    Pinna      `json:"pinna,omitempty"`

	// Files holds the catalog's file field expanded to a list; encrypted
	// multi-sample rigs publish several same-channel captures per device.
	Files []string `json:"-"`
}

// Key returns the device's identity key.
func (d *Device) Key() string { return d.Domain + "::" + d.FileName }

// ScoredDevice pairs a device with its preference score against one target.
type ScoredDevice struct {
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Price      *float64   `json:"price,omitempty"`
	Quality    Quality    `json:"quality"`
	Type       DeviceType `json:"type"`
	Rig        Rig        `json:"rig"`
	Pinna      Pinna      `json:"pinna,omitempty"`
	Similarity float64    `json:"similarity"`
	Stdev      float64    `json:"stdev"`
	Slope      float64    `json:"slope"`
	AvgError   float64    `json:"avgError"`
	Variant    string     `json:"variant"` // target variant chosen for scoring
}
