package fitsview

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the xxHash64 of data as hex, truncated to hexLen
// characters when 0 < hexLen < 16.
func ContentHash(data []byte, hexLen int) string {
	full := fmt.Sprintf("%016x", xxhash.Sum64(data))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}

// Hash identifies the scaled buffer of v. It is empty before the first cut.
func (v *View) Hash() string {
	if v.State != StateCut {
		return ""
	}
	return ContentHash(v.Scaled, 0)
}
