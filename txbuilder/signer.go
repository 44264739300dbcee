package txbuilder

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shardforge/txbuilder/bitcoin"
	"github.com/shardforge/txbuilder/logger"
	"github.com/shardforge/txbuilder/wire"

	"github.com/pkg/errors"
)

// SignOptions carries the optional, per-call inputs to Sign beyond the input index and key.
type SignOptions struct {
	// RedeemScript is required the first time a P2SH input is signed; every later call must
	// supply the identical bytes.
	RedeemScript []byte

	// WitnessValue is the input's committed amount. Required, directly or via AddInput's
	// Transaction-reference harvesting, before any witness-hashed input can be signed.
	WitnessValue *uint64

	// WitnessScript is reserved for bare P2WSH, which this package does not implement yet.
	WitnessScript []byte

	// HashType selects which parts of the transaction the signature commits to. Zero defaults to
	// SIGHASH_ALL.
	HashType wire.SigHashType
}

// Sign computes and places a signature for input vin using key. On first call for an input it
// infers the signing context (script type, pubkeys, witness requirements) from prevOutScript,
// redeemScript, and witnessScript; later calls for the same input reuse that context. The
// signature is placed in the pubkey slot matching key's public key, in the canonical slot order
// the assembler later reads back.
func (b *Builder) Sign(ctx context.Context, vin int, key bitcoin.Key, opts SignOptions) error {
	logger.Verbose(ctx, "%s : sign input %d", SubSystem, vin)

	if key.Network() != b.network {
		return newError(ErrInvalidArgument, "Inconsistent network")
	}

	if vin < 0 || vin >= len(b.inputs) {
		return newError(ErrInvalidArgument, fmt.Sprintf("No input at index: %d", vin))
	}

	hashType := opts.HashType
	if hashType == 0 {
		hashType = wire.SigHashAll
	}

	if b.needsOutputs(hashType) {
		return newError(ErrInvalidState, "Transaction needs outputs")
	}

	stored := b.inputs[vin]

	// Work on a copy so that a failure below leaves the stored input state untouched.
	input := *stored

	if len(opts.RedeemScript) > 0 && len(input.RedeemScript) > 0 &&
		!bytes.Equal(opts.RedeemScript, input.RedeemScript) {
		return newError(ErrInvalidArgument, "Inconsistent redeemScript")
	}

	ourPubKey := key.PublicKey().Bytes()

	if !input.canSign() {
		if err := b.inferSigningContext(&input, ourPubKey, opts); err != nil {
			return err
		}
	}

	var hash *bitcoin.Hash32
	var err error
	if input.HasWitness {
		if input.Value == nil {
			return newError(ErrInvalidArgument, "Missing input value")
		}
		hash, err = b.tx.HashForWitnessV0(vin, input.SignScript, *input.Value, hashType)
	} else {
		hash, err = b.tx.HashForSignature(vin, input.SignScript, hashType)
	}
	if err != nil {
		return errors.Wrap(err, "sign")
	}

	rawSig, err := key.Sign(*hash)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	signature := append(rawSig.Bytes(), byte(hashType))

	slot := -1
	for i, pubkey := range input.PubKeys {
		if pubkey != nil && bytes.Equal(pubkey, ourPubKey) {
			slot = i
			break
		}
	}
	if slot == -1 {
		return newError(ErrInvalidArgument, "Key pair cannot sign for this input")
	}

	if input.Signatures[slot] != nil {
		return newError(ErrDuplicate, "Signature already exists")
	}

	input.Signatures[slot] = signature
	*stored = input
	return nil
}

// inferSigningContext fills in input.SignScript, HasWitness, PubKeys, and Signatures the first
// time an input is signed: an explicit redeemScript or witnessScript wins, then the classified
// prevOutScript, and finally a naked P2PKH assumption over ourPubKey.
func (b *Builder) inferSigningContext(input *InputState, ourPubKey []byte, opts SignOptions) error {
	if opts.WitnessValue != nil {
		if input.Value != nil && *input.Value != *opts.WitnessValue {
			return newError(ErrInvalidArgument, "Inconsistent witness value")
		}
		input.Value = opts.WitnessValue
	}

	switch {
	case len(opts.RedeemScript) > 0:
		return b.inferRedeemScriptContext(input, ourPubKey, opts.RedeemScript)

	case len(opts.WitnessScript) > 0:
		return newError(ErrUnimplemented, "Bare witness scripts not supported")

	case input.PrevOutType == bitcoin.ScriptTypeWPKH:
		pkh, err := pubKeyHashFromScript(input.PrevOutScript)
		if err != nil {
			return errors.Wrap(err, "prevOutScript")
		}

		signScript, err := bitcoin.NewP2PKHLockingScript(pkh)
		if err != nil {
			return err
		}

		input.SignScript = signScript
		input.HasWitness = true
		input.MaxSignatures = 1
		input.PubKeys = make([][]byte, 1)
		input.Signatures = make([][]byte, 1)
		if bytes.Equal(bitcoin.Hash160(ourPubKey), pkh) {
			input.PubKeys[0] = ourPubKey
		}

	case input.PrevOutType == bitcoin.ScriptTypePKH:
		input.SignScript = input.PrevOutScript
		input.MaxSignatures = 1
		input.PubKeys = make([][]byte, 1)
		input.Signatures = make([][]byte, 1)
		if pkh, err := pubKeyHashFromScript(input.PrevOutScript); err == nil &&
			bytes.Equal(bitcoin.Hash160(ourPubKey), pkh) {
			input.PubKeys[0] = ourPubKey
		}

	default:
		// No usable prevOutScript on file: assume a naked P2PKH output to ourPubKey.
		pkh := bitcoin.Hash160(ourPubKey)
		lockingScript, err := bitcoin.NewP2PKHLockingScript(pkh)
		if err != nil {
			return err
		}

		input.PrevOutType = bitcoin.ScriptTypePKH
		input.PrevOutScript = lockingScript
		input.SignScript = lockingScript
		input.MaxSignatures = 1
		input.PubKeys = [][]byte{ourPubKey}
		input.Signatures = make([][]byte, 1)
	}

	return nil
}

// inferRedeemScriptContext resolves a P2SH (or P2SH-P2WPKH) input given its redeem script:
// it validates or derives prevOutScript, expands the redeem script into a signing context, and
// synthesizes the P2PKH-shaped sign-script for the P2SH-P2WPKH case.
func (b *Builder) inferRedeemScriptContext(input *InputState, ourPubKey, redeemScript []byte) error {
	redeemHash, err := bitcoin.NewRawAddressSH(bitcoin.Hash160(redeemScript))
	if err != nil {
		return err
	}

	if len(input.PrevOutScript) > 0 {
		prevRA, err := bitcoin.RawAddressFromLockingScript(input.PrevOutScript)
		if err != nil || prevRA.Type() != bitcoin.ScriptTypeSH {
			return newError(ErrInvalidArgument, "PrevOutScript must be P2SH")
		}
		if !prevRA.Equal(redeemHash) {
			return newError(ErrInvalidArgument, "Redeem script inconsistent with prevOutScript")
		}
	} else {
		script, err := redeemHash.LockingScript()
		if err != nil {
			return err
		}
		input.PrevOutScript = script
	}

	redeemType, signScript, pubkeys, signatures, maxSignatures, err := expandOutput(redeemScript, ourPubKey)
	if err != nil {
		return err
	}
	if len(pubkeys) == 0 {
		return newError(ErrUnimplemented, fmt.Sprintf("%s not supported as redeemScript (%s)",
			scriptTypeName(redeemType), bitcoin.Script(redeemScript).String()))
	}

	input.RedeemScript = redeemScript
	input.RedeemScriptType = redeemType
	input.PrevOutType = bitcoin.ScriptTypeSH
	input.SignScript = signScript
	input.PubKeys = pubkeys
	input.Signatures = signatures
	input.MaxSignatures = maxSignatures

	if redeemType == bitcoin.ScriptTypeWPKH {
		input.HasWitness = true
	}

	return nil
}

func pubKeyHashFromScript(script []byte) ([]byte, error) {
	ra, err := bitcoin.RawAddressFromLockingScript(script)
	if err != nil {
		return nil, err
	}
	return ra.GetPublicKeyHash()
}
