package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/shardforge/txbuilder/bitcoin"

	"github.com/pkg/errors"
)

// SigHashType represents the hash type bits appended to a DER signature.
type SigHashType uint32

const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask isolates the mode bits (ALL/NONE/SINGLE), masking off
	// SigHashAnyOneCanPay.
	sigHashMask = 0x1f
)

// HashForSignature computes the legacy (pre-BIP143) signature hash pre-image
// digest for the input at vin, signing over script in place of that input's
// unlocking script per the rules selected by hashType.
func (tx *MsgTx) HashForSignature(vin int, script []byte, hashType SigHashType) (*bitcoin.Hash32, error) {
	if vin < 0 || vin >= len(tx.TxIn) {
		return nil, errors.Errorf("sighash: input index %d out of range", vin)
	}

	txCopy := tx.Clone()
	anyoneCanPay := hashType&SigHashAnyOneCanPay != 0

	if anyoneCanPay {
		signedIn := txCopy.TxIn[vin]
		signedIn.UnlockingScript = script
		txCopy.TxIn = []*TxIn{signedIn}
		vin = 0
	} else {
		for i, in := range txCopy.TxIn {
			if i == vin {
				in.UnlockingScript = script
			} else {
				in.UnlockingScript = nil
			}
		}
	}

	switch hashType & sigHashMask {
	case SigHashNone:
		txCopy.TxOut = nil
		for i, in := range txCopy.TxIn {
			if i != vin {
				in.Sequence = 0
			}
		}

	case SigHashSingle:
		if vin >= len(txCopy.TxOut) {
			// Historical bitcoind bug: signing SIGHASH_SINGLE with no
			// corresponding output hashes the value 1 instead of failing.
			// Kept for compatibility since replicated consensus behavior
			// can't be "fixed" without a hard fork.
			var one bitcoin.Hash32
			one[0] = 0x01
			return &one, nil
		}

		txCopy.TxOut = txCopy.TxOut[:vin+1]
		for i := 0; i < vin; i++ {
			txCopy.TxOut[i].Value = 0xffffffffffffffff
			txCopy.TxOut[i].LockingScript = nil
		}
		for i, in := range txCopy.TxIn {
			if i != vin {
				in.Sequence = 0
			}
		}
	}

	var buf bytes.Buffer
	if err := txCopy.encodeLegacy(&buf, 0); err != nil {
		return nil, errors.Wrap(err, "encode sighash preimage")
	}
	if err := binary.Write(&buf, endian, uint32(hashType)); err != nil {
		return nil, errors.Wrap(err, "write hash type")
	}

	hash, err := bitcoin.NewHash32(bitcoin.DoubleSha256(buf.Bytes()))
	if err != nil {
		return nil, err
	}
	return hash, nil
}

// HashForWitnessV0 computes the BIP143 signature hash digest for a segwit-v0
// input at vin, given the sign-script and the committed input value. Unlike
// legacy hashing, this pre-image commits to the input's value.
func (tx *MsgTx) HashForWitnessV0(vin int, script []byte, value uint64,
	hashType SigHashType) (*bitcoin.Hash32, error) {

	if vin < 0 || vin >= len(tx.TxIn) {
		return nil, errors.Errorf("sighash: input index %d out of range", vin)
	}

	var buf bytes.Buffer

	if err := binary.Write(&buf, endian, tx.Version); err != nil {
		return nil, err
	}

	var zeroHash [32]byte
	anyoneCanPay := hashType&SigHashAnyOneCanPay != 0
	mode := hashType & sigHashMask

	if !anyoneCanPay {
		buf.Write(hashPrevOuts(tx))
	} else {
		buf.Write(zeroHash[:])
	}

	if !anyoneCanPay && mode != SigHashSingle && mode != SigHashNone {
		buf.Write(hashSequence(tx))
	} else {
		buf.Write(zeroHash[:])
	}

	if err := tx.TxIn[vin].PreviousOutPoint.Serialize(&buf); err != nil {
		return nil, err
	}
	if err := WriteVarBytes(&buf, 0, script); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, endian, value); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, endian, tx.TxIn[vin].Sequence); err != nil {
		return nil, err
	}

	switch {
	case mode != SigHashSingle && mode != SigHashNone:
		buf.Write(hashOutputs(tx))
	case mode == SigHashSingle && vin < len(tx.TxOut):
		var out bytes.Buffer
		if err := tx.TxOut[vin].Serialize(&out, 0, 0); err != nil {
			return nil, err
		}
		buf.Write(bitcoin.DoubleSha256(out.Bytes()))
	default:
		buf.Write(zeroHash[:])
	}

	if err := binary.Write(&buf, endian, tx.LockTime); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, endian, uint32(hashType)); err != nil {
		return nil, err
	}

	hash, err := bitcoin.NewHash32(bitcoin.DoubleSha256(buf.Bytes()))
	if err != nil {
		return nil, err
	}
	return hash, nil
}

func hashPrevOuts(tx *MsgTx) []byte {
	var buf bytes.Buffer
	for _, in := range tx.TxIn {
		in.PreviousOutPoint.Serialize(&buf)
	}
	return bitcoin.DoubleSha256(buf.Bytes())
}

func hashSequence(tx *MsgTx) []byte {
	var buf bytes.Buffer
	for _, in := range tx.TxIn {
		binary.Write(&buf, endian, in.Sequence)
	}
	return bitcoin.DoubleSha256(buf.Bytes())
}

func hashOutputs(tx *MsgTx) []byte {
	var buf bytes.Buffer
	for _, out := range tx.TxOut {
		out.Serialize(&buf, 0, 0)
	}
	return bitcoin.DoubleSha256(buf.Bytes())
}
