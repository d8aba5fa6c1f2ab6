package secretstore

import "strings"

// hexPrefix is the marker carried by hex-encoded values on the JSON-RPC wire
// and stripped from values embedded in session URL paths.
const hexPrefix = "0x"

// Remove0x strips the leading "0x" marker from a hex string. Strings without
// the marker (including the empty string) are returned unchanged.
func Remove0x(s string) string {
	return strings.TrimPrefix(s, hexPrefix)
}

// Ensure0x prepends the "0x" marker to a hex string unless it is already
// present.
func Ensure0x(s string) string {
	if strings.HasPrefix(s, hexPrefix) {
		return s
	}
	return hexPrefix + s
}

// StripEnclosingQuotes removes a single pair of double quotes wrapping the
// whole string, as returned by nodes that JSON-encode plain string bodies.
// Quotes that do not anchor both ends of the string are left alone.
func StripEnclosingQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
