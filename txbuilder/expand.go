package txbuilder

import (
	"bytes"

	"github.com/shardforge/txbuilder/bitcoin"

	"github.com/pkg/errors"
)

// classifyOutput returns the structural type tag of a locking script: P2PKH, P2WPKH, P2SH, or
// NonStandard. It never fails; unrecognized scripts classify as NonStandard.
func classifyOutput(script []byte) int {
	ra, err := bitcoin.RawAddressFromLockingScript(script)
	if err != nil {
		return bitcoin.ScriptTypeNonStandard
	}
	return ra.Type()
}

// expandOutput parses a script-for-signing into its signing context: the type, the sign-script
// fed to the signature hash, and pubkey/signature slots. Only P2PKH and P2WPKH populate slots;
// anything else (P2SH, NonStandard) returns only the type, since P2SH must be resolved through
// its redeem script and nothing else is a supported prevOutScript type. When ourPubKey is given
// and matches the script's pubkey hash, the single slot is pre-filled with it.
func expandOutput(script []byte, ourPubKey []byte) (scriptType int, signScript []byte,
	pubkeys, signatures [][]byte, maxSignatures int, err error) {

	ra, raErr := bitcoin.RawAddressFromLockingScript(script)
	if raErr != nil {
		return bitcoin.ScriptTypeNonStandard, nil, nil, nil, 0, nil
	}

	scriptType = ra.Type()

	switch scriptType {
	case bitcoin.ScriptTypePKH:
		pkh, hErr := ra.GetPublicKeyHash()
		if hErr != nil {
			return scriptType, nil, nil, nil, 0, hErr
		}

		signScript = script
		maxSignatures = 1
		pubkeys = make([][]byte, 1)
		signatures = make([][]byte, 1)
		if len(ourPubKey) > 0 && bytes.Equal(bitcoin.Hash160(ourPubKey), pkh) {
			pubkeys[0] = ourPubKey
		}

	case bitcoin.ScriptTypeWPKH:
		pkh, hErr := ra.GetPublicKeyHash()
		if hErr != nil {
			return scriptType, nil, nil, nil, 0, hErr
		}

		pkhScript, sErr := bitcoin.NewP2PKHLockingScript(pkh)
		if sErr != nil {
			return scriptType, nil, nil, nil, 0, sErr
		}

		signScript = pkhScript
		maxSignatures = 1
		pubkeys = make([][]byte, 1)
		signatures = make([][]byte, 1)
		if len(ourPubKey) > 0 && bytes.Equal(bitcoin.Hash160(ourPubKey), pkh) {
			pubkeys[0] = ourPubKey
		}
	}

	return scriptType, signScript, pubkeys, signatures, maxSignatures, nil
}

// expandedInput is the recovered signing context for an input that already carries a scriptSig
// and/or witness, as produced by expandInput.
type expandedInput struct {
	PrevOutType      int
	RedeemScript     []byte
	RedeemScriptType int
	PubKeys          [][]byte
	Signatures       [][]byte
	MaxSignatures    int
}

// expandInput recovers pubkey/signature slots from an already-built transaction's scriptSig and
// witness: P2PKH carries <sig> <pubkey> in the scriptSig, P2WPKH carries [sig, pubkey] in the
// witness, and P2SH carries its redeem script as the last scriptSig push, expanded recursively.
func expandInput(scriptSig []byte, witness [][]byte) (*expandedInput, error) {
	// A bare P2WPKH input carries no scriptSig at all, only the witness. A P2SH-P2WPKH input
	// carries both: the redeem-script push in scriptSig and [sig, pubkey] in witness. So the
	// witness-only shortcut applies only when scriptSig is empty; a non-empty scriptSig is examined
	// below.
	if len(scriptSig) == 0 {
		if len(witness) == 2 {
			pubkey, err := bitcoin.PublicKeyFromWitness(witness)
			if err == nil {
				return &expandedInput{
					PrevOutType:   bitcoin.ScriptTypeWPKH,
					PubKeys:       [][]byte{pubkey},
					Signatures:    [][]byte{witness[0]},
					MaxSignatures: 1,
				}, nil
			}
		}

		return &expandedInput{PrevOutType: bitcoin.ScriptTypeEmpty}, nil
	}

	if ra, err := bitcoin.RawAddressFromUnlockingScript(scriptSig); err == nil &&
		ra.Type() == bitcoin.ScriptTypePKH {

		pubkey, pErr := bitcoin.PublicKeyFromUnlockingScript(scriptSig)
		sig, sErr := firstPush(scriptSig)
		if pErr == nil && sErr == nil {
			return &expandedInput{
				PrevOutType:   bitcoin.ScriptTypePKH,
				PubKeys:       [][]byte{pubkey},
				Signatures:    [][]byte{sig},
				MaxSignatures: 1,
			}, nil
		}
	}

	items, err := parseAllPushes(scriptSig)
	if err == nil && len(items) >= 1 {
		redeemScript := items[len(items)-1]
		if redeemRA, rErr := bitcoin.RawAddressFromLockingScript(redeemScript); rErr == nil &&
			redeemRA.IsSpendable() {

			innerScript, jErr := joinPushes(items[:len(items)-1])
			if jErr == nil {
				inner, iErr := expandInput(innerScript, witness)
				if iErr == nil {
					return &expandedInput{
						PrevOutType:      bitcoin.ScriptTypeSH,
						RedeemScript:     redeemScript,
						RedeemScriptType: inner.PrevOutType,
						PubKeys:          inner.PubKeys,
						Signatures:       inner.Signatures,
						MaxSignatures:    inner.MaxSignatures,
					}, nil
				}
			}
		}
	}

	return &expandedInput{PrevOutType: bitcoin.ScriptTypeNonStandard}, nil
}

func firstPush(script []byte) ([]byte, error) {
	buf := bytes.NewReader(script)
	_, data, err := bitcoin.ParsePushDataScript(buf)
	return data, err
}

func parseAllPushes(script []byte) ([][]byte, error) {
	buf := bytes.NewReader(script)

	var items [][]byte
	for buf.Len() > 0 {
		_, data, err := bitcoin.ParsePushDataScript(buf)
		if err != nil {
			return nil, errors.Wrap(err, "parse push")
		}
		items = append(items, data)
	}
	return items, nil
}

func joinPushes(items [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range items {
		if err := bitcoin.WritePushDataScript(&buf, item); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
