package catalog

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a GUID the same brace-wrapped hex form it was parsed
// from, so a Program round-tripped through JSON keeps a stable guid field.
func (g GUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(guidToRaw(g))
}

// UnmarshalJSON parses a GUID from its brace-wrapped (or bare) hex string
// form.
func (g *GUID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGUID(stripBraces(s))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// GUIDParseError is the failure mode of ParseGUID.
type GUIDParseError struct {
	Reason string // "too short", "too long", "invalid character"
}

func (e *GUIDParseError) Error() string {
	return fmt.Sprintf("guid parse error: %s", e.Reason)
}

// ParseGUID decodes a hex GUID string into its 16-byte form. The string must
// be between 32 and 36 characters, hex digits optionally interspersed with
// '-'. Hex digits are consumed two at a time into each output byte,
// most-significant nibble first.
func ParseGUID(s string) (GUID, error) {
	var g GUID

	if len(s) < 32 {
		return g, &GUIDParseError{Reason: "too short"}
	}
	if len(s) > 36 {
		return g, &GUIDParseError{Reason: "too long"}
	}

	byteIndex := 0
	highNibble := true
	for _, c := range s {
		if c == '-' {
			continue
		}
		n, ok := hexDigit(c)
		if !ok {
			return GUID{}, &GUIDParseError{Reason: "invalid character"}
		}
		if byteIndex >= 16 {
			return GUID{}, &GUIDParseError{Reason: "too long"}
		}
		if highNibble {
			g[byteIndex] |= n << 4
		} else {
			g[byteIndex] |= n
			byteIndex++
		}
		highNibble = !highNibble
	}

	if byteIndex < 16 || !highNibble {
		return GUID{}, &GUIDParseError{Reason: "too short"}
	}

	return g, nil
}

func hexDigit(c rune) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint8(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint8(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint8(c-'A') + 10, true
	default:
		return 0, false
	}
}

// stripBraces removes a single leading '{' and trailing '}' from s, if
// present, as seen on the wire form of every GUID field.
func stripBraces(s string) string {
	if len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' {
		return s[1 : len(s)-1]
	}
	return s
}
