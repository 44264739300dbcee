package bitcoin

import (
	"bytes"
)

// AddressFromUnlockingScript returns the address associated with the specified unlocking
// (scriptSig) script.
func AddressFromUnlockingScript(unlockingScript []byte, net Network) (Address, error) {
	ra, err := RawAddressFromUnlockingScript(unlockingScript)
	if err != nil {
		return Address{}, err
	}
	return NewAddressFromRawAddress(ra, net), nil
}

// RawAddressFromUnlockingScript returns the raw address associated with the specified unlocking
// (scriptSig) script. It only recognizes P2PKH: <Signature> <PublicKey>.
func RawAddressFromUnlockingScript(unlockingScript []byte) (RawAddress, error) {
	var result RawAddress

	if len(unlockingScript) < 2 {
		return result, ErrUnknownScriptTemplate
	}

	buf := bytes.NewReader(unlockingScript)

	// First push
	_, firstPush, err := ParsePushDataScript(buf)
	if err != nil {
		return result, err
	}

	if buf.Len() == 0 && isSignature(firstPush) {
		// Can't determine public key for address from signature alone. Locking script required.
		return result, ErrNotEnoughData
	}

	if len(firstPush) == 0 {
		return result, ErrUnknownScriptTemplate
	}

	// Second push
	_, secondPush, err := ParsePushDataScript(buf)
	if err != nil {
		return result, err
	}

	if len(secondPush) == 0 {
		return result, ErrUnknownScriptTemplate
	}

	if isSignature(firstPush) && isPublicKey(secondPush) {
		// PKH
		// <Signature> <PublicKey>
		result.SetPKH(Hash160(secondPush))
		return result, nil
	}

	return result, ErrUnknownScriptTemplate
}

// RawAddressFromWitness returns the raw address associated with a segwit v0 witness stack. It only
// recognizes P2WPKH: [<Signature> <PublicKey>].
func RawAddressFromWitness(witness [][]byte) (RawAddress, error) {
	var result RawAddress

	if len(witness) != 2 {
		return result, ErrUnknownScriptTemplate
	}

	signature, publicKey := witness[0], witness[1]

	if !isSignature(signature) || !isPublicKey(publicKey) {
		return result, ErrUnknownScriptTemplate
	}

	result.SetWPKH(Hash160(publicKey))
	return result, nil
}

// PublicKeyFromUnlockingScript returns the serialized compressed public key from the unlocking
// script if there is one.
// It only works for P2PKH unlocking scripts.
func PublicKeyFromUnlockingScript(unlockingScript []byte) ([]byte, error) {
	if len(unlockingScript) < 2 {
		return nil, ErrUnknownScriptTemplate
	}

	buf := bytes.NewReader(unlockingScript)

	// First push
	_, firstPush, err := ParsePushDataScript(buf)
	if err != nil {
		return nil, err
	}

	if isPublicKey(firstPush) {
		return firstPush, nil
	}

	if buf.Len() == 0 {
		if isSignature(firstPush) {
			// Can't determine public key for address from signature alone. Locking script required.
			return nil, ErrNotEnoughData
		}
		return nil, ErrUnknownScriptTemplate
	}

	// Second push
	_, secondPush, err := ParsePushDataScript(buf)
	if err != nil {
		return nil, err
	}

	if isPublicKey(secondPush) {
		return secondPush, nil
	}

	return nil, ErrUnknownScriptTemplate
}

// PublicKeyFromWitness returns the serialized compressed public key from a P2WPKH witness stack.
func PublicKeyFromWitness(witness [][]byte) ([]byte, error) {
	if len(witness) != 2 {
		return nil, ErrUnknownScriptTemplate
	}

	if !isPublicKey(witness[1]) {
		return nil, ErrUnknownScriptTemplate
	}

	return witness[1], nil
}

// isSignature returns true if the data is an encoded signature.
func isSignature(b []byte) bool {
	return len(b) > 40 && b[0] == 0x30 // compound header byte
}

// isPublicKey returns true if the data is an encoded and compressed public key.
func isPublicKey(b []byte) bool {
	return len(b) == 33 && (b[0] == 0x02 || b[0] == 0x03)
}

