package bitcoin

import (
	"bytes"
	"database/sql/driver"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ScriptHashLength is the byte length of a HASH160 digest used in PKH, SH, and WPKH scripts.
const ScriptHashLength = 20

const (
	ScriptTypeEmpty = iota
	ScriptTypePKH
	ScriptTypeSH
	ScriptTypeWPKH
	ScriptTypeNonStandard
)

var (
	ErrBadScriptHashLength   = errors.New("Script hash has invalid length")
	ErrBadType               = errors.New("Address type unknown")
	ErrWrongType             = errors.New("Address type wrong")
	ErrUnknownScriptTemplate = errors.New("Unknown script template")
	ErrNotEnoughData         = errors.New("Not enough data")
)

// RawAddress represents a locking/unlocking script template independent of any network encoding.
// It is the network agnostic form that `Address` wraps with a base58check or bech32 string
// representation.
type RawAddress struct {
	scriptType int
	data       []byte
}

/****************************************** PKH ***************************************************/

// NewRawAddressPKH creates a raw address from a public key hash.
func NewRawAddressPKH(pkh []byte) (RawAddress, error) {
	var result RawAddress
	err := result.SetPKH(pkh)
	return result, err
}

// SetPKH sets the public key hash and script type of the address.
func (ra *RawAddress) SetPKH(pkh []byte) error {
	if len(pkh) != ScriptHashLength {
		return ErrBadScriptHashLength
	}

	ra.scriptType = ScriptTypePKH
	ra.data = pkh
	return nil
}

// GetPublicKeyHash returns the public key hash for a PKH or WPKH address.
func (ra RawAddress) GetPublicKeyHash() ([]byte, error) {
	if ra.scriptType != ScriptTypePKH && ra.scriptType != ScriptTypeWPKH {
		return nil, ErrWrongType
	}

	return ra.data, nil
}

/****************************************** SH ****************************************************/

// NewRawAddressSH creates a raw address from a script hash.
func NewRawAddressSH(sh []byte) (RawAddress, error) {
	var result RawAddress
	err := result.SetSH(sh)
	return result, err
}

// SetSH sets the script hash and script type of the address.
func (ra *RawAddress) SetSH(sh []byte) error {
	if len(sh) != ScriptHashLength {
		return ErrBadScriptHashLength
	}

	ra.scriptType = ScriptTypeSH
	ra.data = sh
	return nil
}

/***************************************** WPKH ***************************************************/

// NewRawAddressWPKH creates a raw address from a segwit v0 public key hash (P2WPKH).
func NewRawAddressWPKH(pkh []byte) (RawAddress, error) {
	var result RawAddress
	err := result.SetWPKH(pkh)
	return result, err
}

// SetWPKH sets the public key hash and script type of the address to segwit v0 P2WPKH.
func (ra *RawAddress) SetWPKH(pkh []byte) error {
	if len(pkh) != ScriptHashLength {
		return ErrBadScriptHashLength
	}

	ra.scriptType = ScriptTypeWPKH
	ra.data = pkh
	return nil
}

/**************************************** Non-Standard **********************************************/

// NewRawAddressNonStandard creates a raw address from a script that is non-standard but possibly
// spendable.
func NewRawAddressNonStandard(script []byte) (RawAddress, error) {
	var result RawAddress
	err := result.SetNonStandard(script)
	return result, err
}

// SetNonStandard sets the script and script type of the address.
func (ra *RawAddress) SetNonStandard(script []byte) error {
	ra.scriptType = ScriptTypeNonStandard
	ra.data = script
	return nil
}

/***************************************** Common *************************************************/

func (ra RawAddress) Type() int {
	return ra.scriptType
}

// IsSpendable returns true if the script template is one this package knows how to unlock.
func (ra RawAddress) IsSpendable() bool {
	switch ra.scriptType {
	case ScriptTypePKH, ScriptTypeSH, ScriptTypeWPKH:
		return true
	}
	return false
}

func (ra RawAddress) IsNonStandard() bool {
	return ra.scriptType == ScriptTypeNonStandard
}

// Bytes returns the type byte followed by the raw address data.
func (ra RawAddress) Bytes() []byte {
	return append([]byte{byte(ra.scriptType)}, ra.data...)
}

func (ra RawAddress) Equal(other RawAddress) bool {
	if ra.scriptType != other.scriptType {
		return false
	}
	return bytes.Equal(ra.data, other.data)
}

func (ra RawAddress) IsEmpty() bool {
	return len(ra.data) == 0
}

func (ra RawAddress) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(ra.scriptType)); err != nil {
		return err
	}

	size := uint32(len(ra.data))
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return err
	}

	_, err := w.Write(ra.data)
	return err
}

func (ra *RawAddress) Deserialize(r io.Reader) error {
	var scriptType uint32
	if err := binary.Read(r, binary.LittleEndian, &scriptType); err != nil {
		return err
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return err
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}

	ra.scriptType = int(scriptType)
	ra.data = data
	return nil
}

// Hash returns the 20 byte hash corresponding to the address, for script types that carry one
// directly.
func (ra RawAddress) Hash() (*Hash20, error) {
	switch ra.scriptType {
	case ScriptTypePKH, ScriptTypeSH, ScriptTypeWPKH:
		return NewHash20(ra.data)
	}
	return nil, ErrUnknownScriptTemplate
}

func (ra RawAddress) Value() (driver.Value, error) {
	return ra.Bytes(), nil
}
