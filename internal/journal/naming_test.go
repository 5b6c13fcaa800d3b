package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDToNameWidthAndRoundTrip(t *testing.T) {
	name := IDToName(42)
	assert.Equal(t, "000000042", name)

	id, ok := NameToID(name)
	assert.True(t, ok)
	assert.Equal(t, uint32(42), id)
}

func TestNameToIDRejectsNonDigitsAndReservedNames(t *testing.T) {
	for _, name := range []string{nextIDFileName, lockFileName, "00000004x", "short", ""} {
		_, ok := NameToID(name)
		assert.Falsef(t, ok, "expected %q to be rejected", name)
	}
}

func TestLexicographicOrderMatchesNumericOrder(t *testing.T) {
	a, b := IDToName(9), IDToName(10)
	assert.Less(t, a, b)
}
