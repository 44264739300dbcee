package txbuilder

import (
	"bytes"

	"github.com/shardforge/txbuilder/bitcoin"
)

// buildByType assembles the final scriptSig and witness for one input from its accumulated
// PubKeys/Signatures slots, dispatching on PrevOutType (or, for P2SH, RedeemScriptType).
func buildByType(input *InputState) ([]byte, [][]byte, error) {
	switch input.PrevOutType {
	case bitcoin.ScriptTypePKH:
		return buildPKH(input.PubKeys, input.Signatures)

	case bitcoin.ScriptTypeWPKH:
		witness, err := buildWPKH(input.PubKeys, input.Signatures)
		return nil, witness, err

	case bitcoin.ScriptTypeSH:
		return buildSH(input)

	default:
		return nil, nil, newError(ErrIncomplete, "Unknown input type")
	}
}

// buildPKH assembles a P2PKH scriptSig: <signature> <pubkey>.
func buildPKH(pubkeys, signatures [][]byte) ([]byte, [][]byte, error) {
	if len(signatures) != 1 || signatures[0] == nil {
		return nil, nil, newError(ErrIncomplete, "Not enough information")
	}

	var buf bytes.Buffer
	if err := bitcoin.WritePushDataScript(&buf, signatures[0]); err != nil {
		return nil, nil, err
	}
	if err := bitcoin.WritePushDataScript(&buf, pubkeys[0]); err != nil {
		return nil, nil, err
	}

	return buf.Bytes(), nil, nil
}

// buildWPKH assembles a P2WPKH witness stack: [signature, pubkey].
func buildWPKH(pubkeys, signatures [][]byte) ([][]byte, error) {
	if len(signatures) != 1 || signatures[0] == nil {
		return nil, newError(ErrIncomplete, "Not enough information")
	}
	return [][]byte{signatures[0], pubkeys[0]}, nil
}

// buildSH assembles a P2SH scriptSig: the wrapped unlocking data (empty for P2WPKH, which moves
// to the witness) followed by the redeem script push. P2SH-P2WPKH additionally gets a witness.
func buildSH(input *InputState) ([]byte, [][]byte, error) {
	var inner []byte
	var witness [][]byte
	var err error

	switch input.RedeemScriptType {
	case bitcoin.ScriptTypePKH:
		inner, _, err = buildPKH(input.PubKeys, input.Signatures)
	case bitcoin.ScriptTypeWPKH:
		witness, err = buildWPKH(input.PubKeys, input.Signatures)
	default:
		return nil, nil, newError(ErrIncomplete, "Unknown input type")
	}
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	buf.Write(inner)
	if err := bitcoin.WritePushDataScript(&buf, input.RedeemScript); err != nil {
		return nil, nil, err
	}

	return buf.Bytes(), witness, nil
}
