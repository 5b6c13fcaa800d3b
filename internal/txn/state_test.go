package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Building:   "building",
		Staged:     "staged",
		Committing: "committing",
		Applied:    "applied",
		Released:   "released",
		Aborted:    "aborted",
		State(99):  "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}
