package txbuilder

import (
	"context"

	"github.com/shardforge/txbuilder/bitcoin"
	"github.com/shardforge/txbuilder/logger"
	"github.com/shardforge/txbuilder/wire"
)

// FromTransaction reconstructs a Builder from an already assembled transaction, recovering each
// input's signing context from its scriptSig and witness. The previous output's locking script is
// not recoverable from tx alone, so PrevOutScript is left unset; everything buildByType needs
// (PrevOutType, PubKeys, Signatures, RedeemScript/RedeemScriptType) is recovered instead, which is
// enough to reproduce tx byte-for-byte but not enough to sign any further input on this builder.
func FromTransaction(ctx context.Context, tx *wire.MsgTx, network bitcoin.Network) (*Builder, error) {
	logger.Verbose(ctx, "%s : from transaction", SubSystem)

	b := &Builder{
		network:        network,
		maximumFeeRate: DefaultMaximumFeeRate,
		tx:             wire.NewMsgTx(tx.Version),
		prevTxSet:      make(map[string]struct{}),
	}
	b.tx.LockTime = tx.LockTime

	for _, txIn := range tx.TxIn {
		index, err := b.addInputUnsafe(txIn.PreviousOutPoint.Hash, txIn.PreviousOutPoint.Index,
			txIn.Sequence, nil)
		if err != nil {
			return nil, err
		}

		expanded, err := expandInput(txIn.UnlockingScript, txIn.Witness)
		if err != nil {
			return nil, err
		}

		input := b.inputs[index]
		input.Script = txIn.UnlockingScript
		input.Witness = txIn.Witness
		input.PrevOutType = expanded.PrevOutType
		input.RedeemScript = expanded.RedeemScript
		input.RedeemScriptType = expanded.RedeemScriptType
		input.PubKeys = expanded.PubKeys
		input.Signatures = expanded.Signatures
		input.MaxSignatures = expanded.MaxSignatures
		input.HasWitness = len(txIn.Witness) > 0
	}

	for _, txOut := range tx.TxOut {
		b.tx.AddTxOut(wire.NewTxOut(txOut.Value, txOut.LockingScript))
	}

	return b, nil
}
