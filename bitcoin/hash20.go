package bitcoin

import (
	"bytes"
	"errors"
)

const Hash20Size = 20

// Hash20 is a 20 byte integer in little endian format.
type Hash20 [Hash20Size]byte

func NewHash20(b []byte) (*Hash20, error) {
	if len(b) != Hash20Size {
		return nil, errors.New("Wrong byte length")
	}
	result := Hash20{}
	copy(result[:], b)
	return &result, nil
}

// Bytes returns the data for the hash.
func (h Hash20) Bytes() []byte {
	return h[:]
}

// Equal returns true if the parameter has the same value.
func (h *Hash20) Equal(o *Hash20) bool {
	if h == nil {
		return o == nil
	}
	if o == nil {
		return false
	}
	return bytes.Equal(h[:], o[:])
}
