package journal

import "fmt"

// nameWidth is the fixed width of a journal record's filename. Names
// are zero-padded decimal so that lexicographic order on the
// directory listing equals commit order.
const nameWidth = 9

const (
	nextIDFileName = "next-id"
	lockFileName   = "lock"
)

// IDToName renders a transaction identifier as its fixed-width,
// zero-padded journal filename.
func IDToName(id uint32) string {
	return fmt.Sprintf("%0*d", nameWidth, id)
}

// NameToID parses a directory entry name back into an identifier. It
// returns false for anything that is not exactly nameWidth decimal
// digits — notably the next-id and lock files, which scan must skip.
func NameToID(name string) (uint32, bool) {
	if len(name) != nameWidth {
		return 0, false
	}
	var id uint32
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
		id = id*10 + uint32(c-'0')
	}
	return id, true
}
