package bitcoin

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"github.com/pkg/errors"
)

var (
	curveS256       = btcec.S256()
	curveS256Params = curveS256.Params()
	curveHalfOrder  = new(big.Int).Rsh(curveS256.N, 1)

	ErrBadKeyLength = errors.New("Key has invalid length")

	zeroBigInt big.Int
)

var (
	ErrBadKeyType    = errors.New("Key type unknown")
	ErrOutOfRangeKey = errors.New("Out of range key")
)

// Key is an elliptic curve private key using the secp256k1 elliptic curve. It always represents a
// compressed public key, the only form this package produces addresses and signatures for.
type Key struct {
	value big.Int
	net   Network
}

// KeyFromStr converts WIF (Wallet Import Format) key text to a key.
func KeyFromStr(s string) (Key, error) {
	var k Key
	if err := k.DecodeString(s); err != nil {
		return Key{}, err
	}
	return k, nil
}

// DecodeString decodes a WIF encoded key into this key.
func (k *Key) DecodeString(s string) error {
	b, err := decodeBase58Check(s)
	if err != nil {
		return errors.Wrap(err, "base58 check")
	}

	if len(b) == 0 {
		return ErrBadKeyLength
	}

	net, ok := networkFromWIFVersion(b[0])
	if !ok {
		return ErrBadKeyType
	}
	b = b[1:]

	if len(b) == 33 {
		if b[len(b)-1] != 0x01 {
			return fmt.Errorf("Key not for compressed public : %x", b[len(b)-1:])
		}
		b = b[:32]
	} else if len(b) != 32 {
		return fmt.Errorf("Key unknown format length %d", len(b))
	}

	if err := privateKeyIsValid(b); err != nil {
		return err
	}

	k.net = net
	k.value.SetBytes(b)
	return nil
}

// KeyFromNumber creates a key from a byte representation of a big number.
func KeyFromNumber(b []byte, net Network) (Key, error) {
	if err := privateKeyIsValid(b); err != nil {
		return Key{}, err
	}
	result := Key{net: net}
	result.value.SetBytes(b)
	return result, nil
}

// GenerateKey randomly generates a new key.
func GenerateKey(net Network) (Key, error) {
	key, err := ecdsa.GenerateKey(curveS256, rand.Reader)
	if err != nil {
		return Key{}, err
	}

	return Key{net: net, value: *key.D}, nil
}

func (k Key) Equal(other Key) bool {
	if k.net != other.net {
		return false
	}

	return k.value.Cmp(&other.value) == 0
}

// String returns the WIF (compressed) encoding of the key.
func (k Key) String() string {
	b := append([]byte{k.net.wifVersion()}, k.Number()...)
	b = append(b, 0x01) // compressed public key marker
	return encodeBase58Check(b)
}

// Network returns the network id for the key.
func (k Key) Network() Network {
	return k.net
}

// SetString decodes a key from WIF text.
func (k *Key) SetString(s string) error {
	return k.DecodeString(s)
}

// SetBytes decodes the key from a 32 byte number, keeping the current network.
func (k *Key) SetBytes(b []byte) error {
	if err := privateKeyIsValid(b); err != nil {
		return err
	}

	k.value.SetBytes(b)
	return nil
}

// Bytes returns the 32 byte number representing the key.
func (k Key) Bytes() []byte {
	return k.Number()
}

func (k *Key) Deserialize(r io.Reader) error {
	b := make([]byte, 32)
	if _, err := io.ReadFull(r, b); err != nil {
		return errors.Wrap(err, "key")
	}

	return k.SetBytes(b)
}

func (k Key) Serialize(w io.Writer) error {
	_, err := w.Write(k.Bytes())
	return err
}

// Number returns 32 bytes representing the 256 bit big-endian integer of the private key.
func (k Key) Number() []byte {
	b := k.value.Bytes()
	if len(b) < 32 {
		extra := make([]byte, 32-len(b))
		b = append(extra, b...)
	}
	return b
}

// PublicKey returns the public key.
func (k Key) PublicKey() PublicKey {
	x, y := curveS256.ScalarBaseMult(k.value.Bytes())
	return PublicKey{X: *x, Y: *y}
}

// RawAddress returns a P2PKH raw address for this key.
func (k Key) RawAddress() (RawAddress, error) {
	return k.PublicKey().RawAddress()
}

// LockingScript returns a P2PKH locking script for this key.
func (k Key) LockingScript() (Script, error) {
	return k.PublicKey().LockingScript()
}

// IsEmpty returns true if the value is zero.
func (k Key) IsEmpty() bool {
	return k.value.Cmp(&zeroBigInt) == 0
}

// Sign returns the signature of the hash for the private key. Its Bytes method gives the DER
// encoding.
func (k Key) Sign(hash Hash32) (Signature, error) {
	return signRFC6979(k.value, hash[:])
}

// MarshalJSONMasked outputs "masked" data that is safe for "masked" configs that are output to logs
// and shouldn't contain any private data.
func (k Key) MarshalJSONMasked() ([]byte, error) {
	return []byte("\"Public:" + k.PublicKey().String() + "\""), nil
}

// MarshalJSON converts to json.
func (k Key) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

// UnmarshalJSON converts from json.
func (k *Key) UnmarshalJSON(data []byte) error {
	return k.DecodeString(string(data[1 : len(data)-1]))
}

// MarshalText returns the text encoding of the key.
// Implements encoding.TextMarshaler interface.
func (k Key) MarshalText() ([]byte, error) {
	b := k.Bytes()
	result := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(result, b)
	return result, nil
}

// UnmarshalText parses a text encoded key and sets the value of this object.
// Implements encoding.TextUnmarshaler interface.
func (k *Key) UnmarshalText(text []byte) error {
	return k.DecodeString(string(text))
}

// MarshalBinary returns the binary encoding of the key.
// Implements encoding.BinaryMarshaler interface.
func (k Key) MarshalBinary() ([]byte, error) {
	return k.Bytes(), nil
}

// UnmarshalBinary parses a binary encoded key and sets the value of this object.
// Implements encoding.BinaryUnmarshaler interface.
func (k *Key) UnmarshalBinary(data []byte) error {
	return k.SetBytes(data)
}

// Scan converts from a database column.
func (k *Key) Scan(data interface{}) error {
	b, ok := data.([]byte)
	if !ok {
		return errors.New("Key db column not bytes")
	}

	c := make([]byte, len(b))
	copy(c, b)
	return k.SetBytes(c)
}

var zeroKeyValue [32]byte

func privateKeyIsValid(b []byte) error {
	// Check for zero private key
	if bytes.Equal(b, zeroKeyValue[:]) {
		return ErrOutOfRangeKey
	}

	// Check for key outside curve
	if bytes.Compare(b, curveS256Params.N.Bytes()) >= 0 {
		return ErrOutOfRangeKey
	}

	return nil
}
