package route

import (
	"encoding/json"
	"fmt"
)

// profileDisc is the minimum JSON structure needed to read the profile
// discriminator.
type profileDisc struct {
	Type string `json:"type"`
}

// segmentJSON is the raw JSON shape of a Segment, before the speed profile
// is resolved.
type segmentJSON struct {
	From    int             `json:"fromIdx"`
	To      int             `json:"toIdx"`
	Profile json.RawMessage `json:"profile"`
}

// UnmarshalJSON implements json.Unmarshaler for Segment. The "profile"
// field must contain a "type" discriminator key that selects the concrete
// implementation; the rest of the profile object is forwarded to that
// implementation's own unmarshaler.
//
// Supported types:
//   - "constant": fixed speed over the segment.
//   - "ramp": linear ramp from the entry speed to a target.
//   - "cruise": accelerate, hold, exit at half cruise.
//   - "stop": brake to zero at the segment end, then dwell.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var aux segmentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.From = aux.From
	s.To = aux.To

	if len(aux.Profile) == 0 {
		return Validationf("segment %d->%d: missing \"profile\" field", aux.From, aux.To)
	}

	var disc profileDisc
	if err := json.Unmarshal(aux.Profile, &disc); err != nil {
		return Validationf("segment %d->%d: reading profile discriminator: %v", aux.From, aux.To, err)
	}

	profile, err := unmarshalProfile(disc.Type, aux.Profile)
	if err != nil {
		return Validationf("segment %d->%d: %v", aux.From, aux.To, err)
	}
	s.Profile = profile
	return nil
}

func unmarshalProfile(kind string, raw json.RawMessage) (SpeedProfile, error) {
	switch kind {
	case KindConstant:
		var p Constant
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parsing constant profile: %w", err)
		}
		if p.SpeedKmh <= 0 {
			return nil, fmt.Errorf("constant profile speedKmh must be > 0, got %v", p.SpeedKmh)
		}
		return p, nil
	case KindRampTo:
		var p RampTo
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parsing ramp profile: %w", err)
		}
		if p.TargetKmh < 0 {
			return nil, fmt.Errorf("ramp profile targetKmh must be >= 0, got %v", p.TargetKmh)
		}
		return p, nil
	case KindCruiseTo:
		var p CruiseTo
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parsing cruise profile: %w", err)
		}
		if p.SpeedKmh <= 0 {
			return nil, fmt.Errorf("cruise profile speedKmh must be > 0, got %v", p.SpeedKmh)
		}
		return p, nil
	case KindStopAtEnd:
		var p StopAtEnd
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parsing stop profile: %w", err)
		}
		if p.StopDurationS < 0 {
			return nil, fmt.Errorf("stop profile stopDurationS must be >= 0, got %v", p.StopDurationS)
		}
		return p, nil
	case "":
		return nil, fmt.Errorf("missing profile type")
	default:
		return nil, fmt.Errorf("unknown profile type %q", kind)
	}
}

// MarshalJSON implements json.Marshaler for Segment, emitting the profile
// with its "type" discriminator.
func (s Segment) MarshalJSON() ([]byte, error) {
	var profile json.RawMessage
	if s.Profile != nil {
		body, err := json.Marshal(s.Profile)
		if err != nil {
			return nil, err
		}
		// Splice the discriminator into the profile object.
		tagged := map[string]json.RawMessage{}
		if err := json.Unmarshal(body, &tagged); err != nil {
			return nil, err
		}
		kind, err := json.Marshal(s.Profile.Kind())
		if err != nil {
			return nil, err
		}
		tagged["type"] = kind
		profile, err = json.Marshal(tagged)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(segmentJSON{From: s.From, To: s.To, Profile: profile})
}
