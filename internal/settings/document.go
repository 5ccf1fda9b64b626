// Package settings holds the rig's mutable device and generator
// configuration: one document the API serves and edits, persisted
// across restarts. Wire field names are stable; writes still accept the
// legacy {"gps": {...}} envelope older clients send.
package settings

import (
	"encoding/json"

	"github.com/routecast/navrig/internal/devices"
	"github.com/routecast/navrig/internal/route"
)

// Document is the full settings document. The yaml tags let a process
// config file carry the document verbatim as the first-boot seed.
type Document struct {
	Generator   Generator   `json:"iq_generator" yaml:"iq_generator"`
	Transmitter Transmitter `json:"gps_transmitter" yaml:"gps_transmitter"`
	Controller  Controller  `json:"controller" yaml:"controller"`
}

// Generator configures IQ artifact generation.
type Generator struct {
	IQBits         int    `json:"iq_bits" yaml:"iq_bits"`
	IQSampleRateHz int    `json:"iq_sample_rate_hz" yaml:"iq_sample_rate_hz"`
	ToolPath       string `json:"tool_path" yaml:"tool_path"`
	EphemerisPath  string `json:"ephemeris_path" yaml:"ephemeris_path"`
}

// Transmitter configures RF playback.
type Transmitter struct {
	CenterFreqHz int  `json:"center_freq_hz" yaml:"center_freq_hz"`
	SampleRateHz int  `json:"sample_rate_hz" yaml:"sample_rate_hz"`
	TxvgaGain    int  `json:"txvga_gain" yaml:"txvga_gain"`
	AmpEnabled   bool `json:"amp_enabled" yaml:"amp_enabled"`
}

// Controller configures the speed/bearing rig's serial link.
type Controller struct {
	Port                string `json:"port" yaml:"port"`
	devices.PortOptions `yaml:",inline"`
}

// Defaults returns the configuration a fresh installation starts with.
func Defaults() Document {
	return Document{
		Generator: Generator{
			IQBits:         8,
			IQSampleRateHz: 2600000,
			ToolPath:       "gps-sdr-sim",
			EphemerisPath:  "assets/brdc0010.22n",
		},
		Transmitter: Transmitter{
			CenterFreqHz: 1575420000,
			SampleRateHz: 2600000,
			TxvgaGain:    40,
			AmpEnabled:   true,
		},
		Controller: Controller{
			Port: "/dev/ttyUSB0",
			PortOptions: devices.PortOptions{
				BaudRate: 115200,
				DataBits: 8,
				StopBits: 1,
				Parity:   "N",
			},
		},
	}
}

// Normalize validates the document and canonicalizes the serial
// options, returning the form that gets persisted.
func (d Document) Normalize() (Document, error) {
	doc := d

	switch doc.Generator.IQBits {
	case 1, 8, 16:
	default:
		return doc, route.Validationf("iq_bits must be 1, 8, or 16")
	}
	if doc.Generator.IQSampleRateHz <= 0 {
		return doc, route.Validationf("iq_sample_rate_hz must be > 0")
	}
	if doc.Generator.ToolPath == "" {
		return doc, route.Validationf("tool_path must not be empty")
	}

	if doc.Transmitter.CenterFreqHz <= 0 {
		return doc, route.Validationf("center_freq_hz must be > 0")
	}
	if doc.Transmitter.SampleRateHz <= 0 {
		return doc, route.Validationf("sample_rate_hz must be > 0")
	}
	if doc.Transmitter.TxvgaGain < 0 || doc.Transmitter.TxvgaGain > 47 {
		return doc, route.Validationf("txvga_gain must be between 0 and 47")
	}

	if doc.Controller.Port == "" {
		return doc, route.Validationf("controller port must not be empty")
	}
	opts, err := doc.Controller.PortOptions.Normalize()
	if err != nil {
		return doc, route.Validationf("controller: %v", err)
	}
	doc.Controller.PortOptions = opts

	return doc, nil
}

// ParseDocument decodes a settings payload. Sections or fields missing
// from the payload take their default values. A payload shaped as
// {"gps": {...}} with no current section keys is unwrapped first.
func ParseDocument(raw []byte) (Document, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Document{}, route.Validationf("settings payload: %v", err)
	}

	_, hasGenerator := envelope["iq_generator"]
	_, hasTransmitter := envelope["gps_transmitter"]
	_, hasController := envelope["controller"]
	if gps, ok := envelope["gps"]; ok && !hasGenerator && !hasTransmitter && !hasController {
		raw = gps
	}

	doc := Defaults()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, route.Validationf("settings payload: %v", err)
	}
	return doc.Normalize()
}
