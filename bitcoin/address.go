package bitcoin

import (
	"errors"
)

// Address is a network-aware, human readable encoding of a RawAddress: base58check for P2PKH and
// P2SH, bech32 for segwit v0 P2WPKH.
type Address struct {
	net Network
	ra  RawAddress
}

// NewAddressFromRawAddress creates an Address from a RawAddress and a network.
func NewAddressFromRawAddress(ra RawAddress, net Network) Address {
	return Address{net: net, ra: ra}
}

// NewAddressPKH creates an address from a public key hash.
func NewAddressPKH(pkh []byte, net Network) (Address, error) {
	ra, err := NewRawAddressPKH(pkh)
	if err != nil {
		return Address{}, err
	}
	return NewAddressFromRawAddress(ra, net), nil
}

// NewAddressSH creates an address from a script hash.
func NewAddressSH(sh []byte, net Network) (Address, error) {
	ra, err := NewRawAddressSH(sh)
	if err != nil {
		return Address{}, err
	}
	return NewAddressFromRawAddress(ra, net), nil
}

// NewAddressWPKH creates a segwit v0 P2WPKH address from a public key hash.
func NewAddressWPKH(pkh []byte, net Network) (Address, error) {
	ra, err := NewRawAddressWPKH(pkh)
	if err != nil {
		return Address{}, err
	}
	return NewAddressFromRawAddress(ra, net), nil
}

// DecodeAddress decodes a base58check or bech32 text bitcoin address. It returns an error if there
// was an issue.
func DecodeAddress(address string) (Address, error) {
	var result Address
	err := result.Decode(address)
	return result, err
}

// Decode decodes a base58check or bech32 text bitcoin address into this Address.
func (a *Address) Decode(address string) error {
	if hrp, version, program, err := decodeSegwitAddress(address); err == nil {
		net, ok := networkFromBech32HRP(hrp)
		if !ok {
			return ErrInvalidNetwork
		}
		if version != 0 {
			return ErrUnknownScriptTemplate
		}

		var ra RawAddress
		if err := ra.SetWPKH(program); err != nil {
			return err
		}

		a.net = net
		a.ra = ra
		return nil
	}

	b, err := decodeBase58Check(address)
	if err != nil {
		return err
	}

	if len(b) < 2 {
		return ErrBadType
	}

	version, data := b[0], b[1:]

	if net, ok := networkFromPubKeyHashVersion(version); ok {
		var ra RawAddress
		if err := ra.SetPKH(data); err != nil {
			return err
		}
		a.net = net
		a.ra = ra
		return nil
	}

	if net, ok := networkFromScriptHashVersion(version); ok {
		var ra RawAddress
		if err := ra.SetSH(data); err != nil {
			return err
		}
		a.net = net
		a.ra = ra
		return nil
	}

	return ErrBadType
}

// RawAddress returns the network agnostic script template behind this address.
func (a Address) RawAddress() RawAddress {
	return a.ra
}

// Network returns the network id for the address.
func (a Address) Network() Network {
	return a.net
}

// String returns the text encoding of the address: base58check for PKH/SH, bech32 for WPKH.
func (a Address) String() string {
	switch a.ra.scriptType {
	case ScriptTypePKH:
		return encodeBase58Check(append([]byte{a.net.pubKeyHashVersion()}, a.ra.data...))
	case ScriptTypeSH:
		return encodeBase58Check(append([]byte{a.net.scriptHashVersion()}, a.ra.data...))
	case ScriptTypeWPKH:
		s, err := encodeSegwitAddress(a.net.bech32HRP(), 0, a.ra.data)
		if err != nil {
			return ""
		}
		return s
	}

	return ""
}

// IsEmpty returns true if the address does not have a value set.
func (a Address) IsEmpty() bool {
	return a.ra.IsEmpty()
}

// Hash returns the hash corresponding to the address.
func (a Address) Hash() (*Hash20, error) {
	return a.ra.Hash()
}

// MarshalText returns the text encoding of the address.
// Implements encoding.TextMarshaler interface.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a text encoded bitcoin address and sets the value of this object.
// Implements encoding.TextUnmarshaler interface.
func (a *Address) UnmarshalText(text []byte) error {
	return a.Decode(string(text))
}

// MarshalJSON converts to json.
func (a Address) MarshalJSON() ([]byte, error) {
	if a.ra.IsEmpty() {
		return []byte("\"\""), nil
	}
	return []byte("\"" + a.String() + "\""), nil
}

// UnmarshalJSON converts from json.
func (a *Address) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return errors.New("Too short for Address data")
	}

	if len(data) == 2 {
		*a = Address{}
		return nil
	}

	return a.Decode(string(data[1 : len(data)-1]))
}

// Scan converts from a database column.
func (a *Address) Scan(data interface{}) error {
	if data == nil {
		*a = Address{}
		return nil
	}

	s, ok := data.(string)
	if !ok {
		return errors.New("Address db column not a string")
	}

	if len(s) == 0 {
		*a = Address{}
		return nil
	}

	return a.Decode(s)
}
