package bitcoin

// AddressFromLockingScript returns the address associated with the specified locking script.
func AddressFromLockingScript(lockingScript Script, net Network) (Address, error) {
	ra, err := RawAddressFromLockingScript(lockingScript)
	if err != nil {
		return Address{}, err
	}
	return NewAddressFromRawAddress(ra, net), nil
}

// checkNonStandard returns a non-standard raw address if the locking script is possibly spendable.
func checkNonStandard(lockingScript Script) (RawAddress, error) {
	if LockingScriptIsUnspendable(lockingScript) {
		return RawAddress{}, ErrUnknownScriptTemplate
	}

	return NewRawAddressNonStandard(lockingScript)
}

// RawAddressFromLockingScript returns the script template associated with the specified locking
// script: P2PKH, P2WPKH, or P2SH. Anything else that isn't provably unspendable is returned as
// non-standard.
func RawAddressFromLockingScript(lockingScript Script) (RawAddress, error) {
	var result RawAddress
	if len(lockingScript) == 0 {
		return result, ErrUnknownScriptTemplate
	}

	script := lockingScript
	switch script[0] {
	case OP_DUP: // PKH
		if len(script) != 25 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		if script[0] != OP_HASH160 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		if script[0] != OP_PUSH_DATA_20 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		pkh := script[:ScriptHashLength]
		script = script[ScriptHashLength:]

		if script[0] != OP_EQUALVERIFY {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		if script[0] != OP_CHECKSIG {
			return checkNonStandard(lockingScript)
		}

		err := result.SetPKH(pkh)
		return result, err

	case OP_0: // WPKH (segwit v0, witness program is the public key hash)
		if len(script) != 22 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		if script[0] != OP_PUSH_DATA_20 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		err := result.SetWPKH(script[:ScriptHashLength])
		return result, err

	case OP_HASH160: // P2SH
		if len(script) != 23 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		if script[0] != OP_PUSH_DATA_20 {
			return checkNonStandard(lockingScript)
		}
		script = script[1:]

		sh := script[:ScriptHashLength]
		script = script[ScriptHashLength:]

		if script[0] != OP_EQUAL {
			return checkNonStandard(lockingScript)
		}

		err := result.SetSH(sh)
		return result, err
	}

	return checkNonStandard(lockingScript)
}

func (ra RawAddress) LockingScript() (Script, error) {
	switch ra.scriptType {
	case ScriptTypePKH:
		result := make(Script, 0, 25)

		result = append(result, OP_DUP)
		result = append(result, OP_HASH160)

		// Push public key hash
		result = append(result, OP_PUSH_DATA_20) // Single byte push op code of 20 bytes
		result = append(result, ra.data...)

		result = append(result, OP_EQUALVERIFY)
		result = append(result, OP_CHECKSIG)
		return result, nil

	case ScriptTypeWPKH:
		result := make(Script, 0, 22)

		result = append(result, OP_0)

		// Push public key hash
		result = append(result, OP_PUSH_DATA_20) // Single byte push op code of 20 bytes
		result = append(result, ra.data...)
		return result, nil

	case ScriptTypeSH:
		result := make(Script, 0, 23)

		result = append(result, OP_HASH160)

		// Push script hash
		result = append(result, OP_PUSH_DATA_20) // Single byte push op code of 20 bytes
		result = append(result, ra.data...)

		result = append(result, OP_EQUAL)
		return result, nil

	case ScriptTypeNonStandard:
		return NewScript(ra.data), nil
	}

	return nil, ErrUnknownScriptTemplate
}

// NewP2PKHLockingScript builds a P2PKH locking script directly from a public key hash.
func NewP2PKHLockingScript(pkh []byte) (Script, error) {
	ra, err := NewRawAddressPKH(pkh)
	if err != nil {
		return nil, err
	}
	return ra.LockingScript()
}
