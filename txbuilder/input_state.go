package txbuilder

import "github.com/shardforge/txbuilder/bitcoin"

// InputState accumulates everything known about one transaction input: the prior output it
// spends, the script that gets fed to the signature hash, and the pubkey/signature slots filled
// in as Sign is called. It sits parallel to Builder.tx.TxIn, sharing the same index.
type InputState struct {
	Sequence uint32
	Script   []byte   // raw scriptSig, set only when reconstructed via FromTransaction
	Witness  [][]byte // set only when reconstructed via FromTransaction

	PrevOutScript []byte
	PrevOutType   int // one of bitcoin.ScriptType*

	RedeemScript     []byte
	RedeemScriptType int // one of bitcoin.ScriptType*, populated only for P2SH wrappers

	SignScript []byte
	HasWitness bool
	Value      *uint64 // nil means unknown; required for any witness-hashed input before signing

	// PubKeys and Signatures are parallel, equal-length, index-aligned slices. A nil entry in
	// either is an empty slot. Length 1 for P2PKH/P2WPKH; longer slices are reserved for the
	// multisig case this package does not yet support.
	PubKeys       [][]byte
	Signatures    [][]byte
	MaxSignatures int
}

// canSign returns true if enough context is already known about the input to hash and sign it
// without inferring anything further from prevOutScript/redeemScript/witnessScript.
func (in *InputState) canSign() bool {
	if len(in.SignScript) == 0 {
		return false
	}
	if len(in.PubKeys) == 0 || len(in.PubKeys) != len(in.Signatures) {
		return false
	}
	if in.HasWitness && in.Value == nil {
		return false
	}
	return true
}

// isSigned returns true if any signature slot on the input is filled.
func (in *InputState) isSigned() bool {
	for _, sig := range in.Signatures {
		if sig != nil {
			return true
		}
	}
	return false
}

func scriptTypeName(t int) string {
	switch t {
	case bitcoin.ScriptTypePKH:
		return "P2PKH"
	case bitcoin.ScriptTypeWPKH:
		return "P2WPKH"
	case bitcoin.ScriptTypeSH:
		return "P2SH"
	case bitcoin.ScriptTypeNonStandard:
		return "NonStandard"
	default:
		return "Empty"
	}
}
