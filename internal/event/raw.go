package event

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RawEvent is one record from the upstream calendar feed. The upstream
// schema is unstable: any nested object may be missing, identifiers may be
// strings or numbers, and categories arrive in several shapes. Decoding is
// tolerant; fields of an unexpected type decode to their zero value rather
// than failing the whole record.
type RawEvent struct {
	ID          FlexString   `json:"id"`
	GUID        FlexString   `json:"guid"`
	Summary     FlexString   `json:"summary"`
	Description FlexString   `json:"description"`
	Start       *RawDate     `json:"start,omitempty"`
	End         *RawDate     `json:"end,omitempty"`
	Location    *RawLocation `json:"location,omitempty"`
	Contact     *RawContact  `json:"contact,omitempty"`
	Sponsor     FlexString   `json:"sponsor"`
	Categories  Categories   `json:"categories"`
	Link        FlexString   `json:"link"`
	XProperties *XProperties `json:"xproperties,omitempty"`
}

// RawDate carries the compact UTC date string.
type RawDate struct {
	UTCDate FlexString `json:"utcdate"`
}

// RawLocation is the upstream location object.
type RawLocation struct {
	Address FlexString `json:"address"`
	Link    FlexString `json:"link"`
}

// RawContact is the upstream contact object.
type RawContact struct {
	Name  FlexString `json:"name"`
	Email FlexString `json:"email"`
}

// XProperties holds the calendar server's custom properties.
type XProperties struct {
	Sponsor *XProperty `json:"X_BEDEWORK_CS,omitempty"`
	Image   *XProperty `json:"X_BEDEWORK_IMAGE,omitempty"`
}

// XProperty is a single custom property; its payload lives in values.text.
type XProperty struct {
	Values *XValues `json:"values,omitempty"`
}

// XValues is the payload of a custom property.
type XValues struct {
	Text FlexString `json:"text"`
}

// Text returns the property's text payload, or "" if any level is missing.
func (p *XProperty) Text() string {
	if p == nil || p.Values == nil {
		return ""
	}
	return string(p.Values.Text)
}

// Nested objects decode only when the upstream value really is an object;
// anything else leaves the zero value so one malformed field cannot reject
// the whole record.

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawEvent) UnmarshalJSON(data []byte) error {
	type plain RawEvent
	return decodeObject(data, (*plain)(r))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *RawDate) UnmarshalJSON(data []byte) error {
	type plain RawDate
	return decodeObject(data, (*plain)(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *RawLocation) UnmarshalJSON(data []byte) error {
	type plain RawLocation
	return decodeObject(data, (*plain)(l))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *RawContact) UnmarshalJSON(data []byte) error {
	type plain RawContact
	return decodeObject(data, (*plain)(c))
}

// UnmarshalJSON implements json.Unmarshaler.
func (x *XProperties) UnmarshalJSON(data []byte) error {
	type plain XProperties
	return decodeObject(data, (*plain)(x))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *XProperty) UnmarshalJSON(data []byte) error {
	type plain XProperty
	return decodeObject(data, (*plain)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *XValues) UnmarshalJSON(data []byte) error {
	type plain XValues
	return decodeObject(data, (*plain)(v))
}

func decodeObject(data []byte, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	return json.Unmarshal(data, v)
}

// FlexString decodes a JSON string or number into a string. null, booleans,
// objects and arrays decode to "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			*f = ""
			return nil
		}
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			*f = FlexString(strconv.FormatInt(i, 10))
			return nil
		}
		*f = FlexString(n.String())
	default:
		*f = ""
	}
	return nil
}

// Categories decodes the upstream category list. Accepted shapes:
//
//	"Lecture"
//	["Lecture", "Free"]
//	[{"value": "Lecture"}]
//	{"category": [{"value": "Lecture"}]}
//	{"category": {"value": "Lecture"}}
//
// Scalars decode as FlexString, so numbers are kept as text. Empty values are
// dropped; order is preserved.
type Categories []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Categories) UnmarshalJSON(data []byte) error {
	*c = collectCategories(bytes.TrimSpace(data))
	return nil
}

func collectCategories(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(data, &items) != nil {
			return nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, collectCategories(bytes.TrimSpace(item))...)
		}
		return out
	case '{':
		var obj map[string]json.RawMessage
		if json.Unmarshal(data, &obj) != nil {
			return nil
		}
		if inner, ok := obj["category"]; ok {
			return collectCategories(bytes.TrimSpace(inner))
		}
		if v, ok := obj["value"]; ok {
			var s FlexString
			if json.Unmarshal(v, &s) == nil && s != "" {
				return []string{string(s)}
			}
		}
	default:
		var s FlexString
		if json.Unmarshal(data, &s) == nil && s != "" {
			return []string{string(s)}
		}
	}
	return nil
}
