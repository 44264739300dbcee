// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/shardforge/txbuilder/bitcoin"
)

const (
	// MaxVarIntPayload is the maximum payload size for a variable length integer.
	MaxVarIntPayload = uint64(9)
)

var (
	endian = binary.LittleEndian
)

// errNonCanonicalVarInt is the common format string used for non-canonically
// encoded variable length integer errors.
var errNonCanonicalVarInt = "non-canonical varint %x - discriminant %x must " +
	"encode a value greater than %x"

// readElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func readElement(r io.Reader, element interface{}) error {
	// Attempt to read the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case *int32:
		var rv int32
		err := binary.Read(r, endian, &rv)
		if err != nil {
			return err
		}
		*e = int32(rv)
		return nil

	case *uint32:
		var rv uint32
		err := binary.Read(r, endian, &rv)
		if err != nil {
			return err
		}
		*e = rv
		return nil

	case *int64:
		var rv int64
		err := binary.Read(r, endian, &rv)
		if err != nil {
			return err
		}
		*e = int64(rv)
		return nil

	case *uint64:
		var rv uint64
		err := binary.Read(r, endian, &rv)
		if err != nil {
			return err
		}
		*e = rv
		return nil

	case *bool:
		var rv uint8
		err := binary.Read(r, endian, &rv)
		if err != nil {
			return err
		}
		if rv == 0x00 {
			*e = false
		} else {
			*e = true
		}
		return nil

	case *bitcoin.Hash32:
		_, err := io.ReadFull(r, e[:])
		if err != nil {
			return err
		}
		return nil
	}

	// Fall back to the slower binary.Read if a fast path was not available
	// above.
	return binary.Read(r, endian, element)
}

// ReadVarInt reads a variable length integer from r and returns it as a uint64.
func ReadVarInt(r io.Reader, pver uint32) (uint64, error) {
	_, result, err := ReadVarIntN(r, pver)
	return result, err
}

// ReadVarIntN reads a variable length integer from r and returns it's size and value as uint64s.
func ReadVarIntN(r io.Reader, pver uint32) (uint64, uint64, error) {
	var discriminant uint8
	err := binary.Read(r, endian, &discriminant)
	if err != nil {
		return 0, 0, err
	}

	switch discriminant {
	case 0xff:
		var sv uint64
		err := binary.Read(r, endian, &sv)
		if err != nil {
			return 0, 0, err
		}

		// The encoding is not canonical if the value could have been
		// encoded using fewer bytes.
		min := uint64(0x100000000)
		if sv < min {
			return 0, 0, messageError("ReadVarInt", fmt.Sprintf(
				errNonCanonicalVarInt, sv, discriminant, min))
		}

		return 9, sv, nil

	case 0xfe:
		var sv uint32
		err := binary.Read(r, endian, &sv)
		if err != nil {
			return 0, 0, err
		}

		// The encoding is not canonical if the value could have been
		// encoded using fewer bytes.
		min := uint32(0x10000)
		if sv < min {
			return 0, 0, messageError("ReadVarInt", fmt.Sprintf(
				errNonCanonicalVarInt, sv, discriminant, min))
		}

		return 5, uint64(sv), nil

	case 0xfd:
		var sv uint16
		err := binary.Read(r, endian, &sv)
		if err != nil {
			return 0, 0, err
		}

		// The encoding is not canonical if the value could have been
		// encoded using fewer bytes.
		min := uint16(0xfd)
		if sv < min {
			return 0, 0, messageError("ReadVarInt", fmt.Sprintf(
				errNonCanonicalVarInt, sv, discriminant, min))
		}

		return 3, uint64(sv), nil

	default:
		return 1, uint64(discriminant), nil
	}
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, pver uint32, val uint64) error {
	if val < 0xfd {
		return binary.Write(w, endian, uint8(val))
	}

	if val <= math.MaxUint16 {
		err := binary.Write(w, endian, uint8(0xfd))
		if err != nil {
			return err
		}
		return binary.Write(w, endian, uint16(val))
	}

	if val <= math.MaxUint32 {
		err := binary.Write(w, endian, uint8(0xfe))
		if err != nil {
			return err
		}
		return binary.Write(w, endian, uint32(val))
	}

	err := binary.Write(w, endian, uint8(0xff))
	if err != nil {
		return err
	}
	return binary.Write(w, endian, val)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < 0xfd {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= math.MaxUint16 {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= math.MaxUint32 {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// ReadVarBytes reads a variable length byte array.  A byte array is encoded
// as a varInt containing the length of the array followed by the bytes
// themselves.  An error is returned if the length is greater than the
// passed maxAllowed parameter which helps protect against memory exhuastion
// attacks and forced panics thorugh malformed messages.  The fieldName
// parameter is only used for the error message so it provides more context in
// the error.
func ReadVarBytes(r io.Reader, pver uint32, maxAllowed uint64,
	fieldName string) ([]byte, error) {

	count, err := ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}

	// Prevent byte array larger than the max message size.  It would
	// be possible to cause memory exhaustion and panics without a sane
	// upper bound on this count.
	if count > uint64(maxAllowed) {
		str := fmt.Sprintf("%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
		return nil, messageError("ReadVarBytes", str)
	}

	b := make([]byte, count)
	_, err = io.ReadFull(r, b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varInt
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, pver uint32, bytes []byte) error {
	slen := uint64(len(bytes))
	err := WriteVarInt(w, pver, slen)
	if err != nil {
		return err
	}

	_, err = w.Write(bytes)
	return err
}
