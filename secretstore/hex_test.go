package secretstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemove0x(t *testing.T) {
	assert.Equal(t, "", Remove0x(""))
	assert.Equal(t, "abcd", Remove0x("0xabcd"))
	assert.Equal(t, "abcd", Remove0x("abcd"))
	assert.Equal(t, "", Remove0x("0x"))
}

func TestEnsure0x(t *testing.T) {
	assert.Equal(t, "0xabcd", Ensure0x("abcd"))
	assert.Equal(t, "0xabcd", Ensure0x("0xabcd"))
	assert.Equal(t, "0x", Ensure0x(""))
}

// The transforms must be idempotent and commute under mixed application.
func TestHexPrefixRoundTrip(t *testing.T) {
	for _, s := range []string{"", "0x", "abcd", "0xabcd", "x", "0", "00abcd"} {
		assert.Equal(t, Remove0x(s), Remove0x(Ensure0x(s)), "input %q", s)
		assert.Equal(t, Ensure0x(s), Ensure0x(Ensure0x(s)), "input %q", s)
	}
}

func TestStripEnclosingQuotes(t *testing.T) {
	assert.Equal(t, "abc", StripEnclosingQuotes(`"abc"`))
	assert.Equal(t, "abc", StripEnclosingQuotes("abc"))
	// Quotes are only stripped when they anchor both ends.
	assert.Equal(t, `a"b`, StripEnclosingQuotes(`"a"b"`))
	assert.Equal(t, `"ab`, StripEnclosingQuotes(`"ab`))
	assert.Equal(t, `ab"`, StripEnclosingQuotes(`ab"`))
	assert.Equal(t, `"`, StripEnclosingQuotes(`"`))
	assert.Equal(t, "", StripEnclosingQuotes(`""`))
	assert.Equal(t, "", StripEnclosingQuotes(""))
}
