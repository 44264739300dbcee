package txbuilder

import "github.com/shardforge/txbuilder/wire"

// sigHashTypeOf extracts the SigHashType a placed signature committed to, from its trailing
// hashType byte.
func sigHashTypeOf(signature []byte) wire.SigHashType {
	if len(signature) == 0 {
		return 0
	}
	return wire.SigHashType(signature[len(signature)-1])
}

// canModifyInputs is false unless every existing signature carries SIGHASH_ANYONECANPAY, the
// only bit that commits a signature to just its own input.
func (b *Builder) canModifyInputs() bool {
	for _, input := range b.inputs {
		for _, sig := range input.Signatures {
			if sig == nil {
				continue
			}
			if sigHashTypeOf(sig)&wire.SigHashAnyOneCanPay == 0 {
				return false
			}
		}
	}
	return true
}

// canModifyOutputs inspects the low 5 bits (the mode) of every existing signature's hashType.
// SIGHASH_NONE never cares about outputs. SIGHASH_SINGLE only tolerates additions that keep the
// input/output pairing intact (nInputs <= nOutputs). Anything else, including SIGHASH_ALL,
// forbids modification outright.
func (b *Builder) canModifyOutputs() bool {
	nInputs := len(b.tx.TxIn)
	nOutputs := len(b.tx.TxOut)

	for _, input := range b.inputs {
		for _, sig := range input.Signatures {
			if sig == nil {
				continue
			}

			switch sigHashTypeOf(sig) & 0x1f {
			case wire.SigHashNone:
				continue
			case wire.SigHashSingle:
				if nInputs > nOutputs {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

// hasAnySignature returns true if any input on the builder carries a placed signature.
func (b *Builder) hasAnySignature() bool {
	for _, input := range b.inputs {
		if input.isSigned() {
			return true
		}
	}
	return false
}

// needsOutputs implements the literal (and, per the source this was distilled from, slightly
// over-eager) rule: signing with SIGHASH_ALL against an output-less transaction always fails, and
// so does signing with any hashType once any existing signature on any input has a mode other
// than SIGHASH_NONE and the transaction currently has no outputs.
func (b *Builder) needsOutputs(hashType wire.SigHashType) bool {
	if len(b.tx.TxOut) > 0 {
		return false
	}

	if hashType&0x1f == wire.SigHashAll {
		return true
	}

	for _, input := range b.inputs {
		for _, sig := range input.Signatures {
			if sig == nil {
				continue
			}
			if sigHashTypeOf(sig)&0x1f != wire.SigHashNone {
				return true
			}
		}
	}
	return false
}
