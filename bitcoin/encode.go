package bitcoin

import (
	"encoding/base64"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
)

var (
	ErrBadCheckSum    = errors.New("Address has bad checksum")
	ErrInvalidVersion = errors.New("Invalid Version")
	ErrInvalidNetwork = errors.New("Invalid Network")
)

// Base64 returns the Bas64 encoding of the input.
//
// See https://en.wikipedia.org/wiki/Base64
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode returns base 64 decodes the argument and returns the result.
func Base64Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Base58 returns the Base58 encoding of the input.
//
// See https://en.wikipedia.org/wiki/Base58
func Base58(b []byte) string {
	return base58.Encode(b)
}

// Base58Decode base58 decodes the argument and returns the result.
func Base58Decode(s string) []byte {
	return base58.Decode(s)
}

// encodeBase58Check appends a double-SHA256 checksum and base58 encodes the result.
func encodeBase58Check(b []byte) string {
	checksum := DoubleSha256(b)
	data := append(append([]byte{}, b...), checksum[:4]...)
	return Base58(data)
}

// decodeBase58Check base58 decodes and verifies the trailing double-SHA256 checksum.
func decodeBase58Check(s string) ([]byte, error) {
	b := Base58Decode(s)
	if len(b) < 5 {
		return nil, ErrBadCheckSum
	}

	checksum := DoubleSha256(b[:len(b)-4])
	if string(checksum[:4]) != string(b[len(b)-4:]) {
		return nil, ErrBadCheckSum
	}

	return b[:len(b)-4], nil
}

// encodeSegwitAddress bech32 encodes a witness version and program under the given HRP.
func encodeSegwitAddress(hrp string, version byte, program []byte) (string, error) {
	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "convert bits")
	}

	data := make([]byte, 0, len(converted)+1)
	data = append(data, version)
	data = append(data, converted...)

	return bech32.Encode(hrp, data)
}

// decodeSegwitAddress decodes a bech32 segwit address into its HRP, witness version, and program.
func decodeSegwitAddress(address string) (hrp string, version byte, program []byte, err error) {
	hrp, data, err := bech32.Decode(address)
	if err != nil {
		return "", 0, nil, err
	}

	if len(data) == 0 {
		return "", 0, nil, errors.New("Empty bech32 data")
	}

	version = data[0]
	program, err = bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return "", 0, nil, errors.Wrap(err, "convert bits")
	}

	return hrp, version, program, nil
}
