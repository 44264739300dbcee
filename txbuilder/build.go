package txbuilder

import (
	"context"

	"github.com/shardforge/txbuilder/logger"
	"github.com/shardforge/txbuilder/wire"
)

// Build assembles the final transaction. It fails with ErrInvalidState if the transaction has no
// inputs or no outputs, with ErrIncomplete if any input is missing a required signature, and with
// ErrAbsurdFee if the resulting fee rate exceeds the maximum this builder was configured with.
// Outputs that exceed inputs are not rejected; an input of unknown value counts as zero.
func (b *Builder) Build(ctx context.Context) (*wire.MsgTx, error) {
	logger.Verbose(ctx, "%s : build", SubSystem)
	return b.build(ctx, false)
}

// BuildIncomplete assembles the transaction with whatever signatures are currently present,
// leaving any input still missing one with an empty scriptSig/witness. It skips the absurd fee
// check, since a partially signed transaction is not meant to be broadcast.
func (b *Builder) BuildIncomplete(ctx context.Context) (*wire.MsgTx, error) {
	logger.Verbose(ctx, "%s : build incomplete", SubSystem)
	return b.build(ctx, true)
}

func (b *Builder) build(ctx context.Context, allowIncomplete bool) (*wire.MsgTx, error) {
	if !allowIncomplete {
		if len(b.tx.TxIn) == 0 || len(b.tx.TxOut) == 0 {
			return nil, newError(ErrInvalidState, "Transaction has no inputs or outputs")
		}
	}

	tx := b.tx.Clone()

	for i, input := range b.inputs {
		if !input.isSigned() {
			if allowIncomplete {
				continue
			}
			return nil, newError(ErrIncomplete, "Transaction is not complete")
		}

		scriptSig, witness, err := buildByType(input)
		if err != nil {
			if allowIncomplete && IsErrorKind(err, ErrIncomplete) {
				continue
			}
			return nil, err
		}

		tx.TxIn[i].UnlockingScript = scriptSig
		tx.TxIn[i].Witness = witness
	}

	if !allowIncomplete {
		if err := b.checkFee(tx); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// checkFee sums input and output values and guards against a ruinous fee by comparing the fee
// rate, computed over the final assembled size, to the builder's configured maximum. This is
// best-effort: an input with an unknown Value (never harvested nor supplied) counts as zero
// rather than failing the build outright.
func (b *Builder) checkFee(tx *wire.MsgTx) error {
	var totalIn uint64
	for _, input := range b.inputs {
		if input.Value != nil {
			totalIn += *input.Value
		}
	}

	var totalOut uint64
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}

	if totalOut >= totalIn {
		return nil
	}
	fee := totalIn - totalOut

	if b.maximumFeeRate == 0 {
		return nil
	}

	vsize := uint64(tx.VirtualSize())
	if vsize == 0 {
		return nil
	}

	if fee > b.maximumFeeRate*vsize {
		return newError(ErrAbsurdFee, "Transaction has absurd fees")
	}

	return nil
}
