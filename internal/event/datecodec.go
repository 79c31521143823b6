package event

import (
	"time"
)

// compactLayout is the upstream UTC date encoding, e.g. 20250902T040000Z.
const compactLayout = "20060102T150405Z"

// DecodeCompact converts an upstream compact UTC date (YYYYMMDDTHHMMSSZ)
// into Unix seconds. Components are taken from fixed offsets and
// reassembled as an RFC 3339 instant. It returns nil for anything that does
// not describe a real calendar instant; it never panics.
func DecodeCompact(compact string) *int64 {
	if len(compact) < 15 {
		return nil
	}

	year := compact[0:4]
	month := compact[4:6]
	day := compact[6:8]
	hour := compact[9:11]
	minute := compact[11:13]
	second := compact[13:15]

	for _, part := range []string{year, month, day, hour, minute, second} {
		if !allDigits(part) {
			return nil
		}
	}

	formatted := year + "-" + month + "-" + day + "T" + hour + ":" + minute + ":" + second + "Z"
	t, err := time.Parse(time.RFC3339, formatted)
	if err != nil {
		return nil
	}

	ts := t.Unix()
	return &ts
}

// EncodeCompact renders Unix seconds in the upstream compact UTC form.
func EncodeCompact(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(compactLayout)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
