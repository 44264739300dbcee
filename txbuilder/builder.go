package txbuilder

import (
	"context"
	"fmt"
	"math"

	"github.com/shardforge/txbuilder/bitcoin"
	"github.com/shardforge/txbuilder/logger"
	"github.com/shardforge/txbuilder/wire"

	"github.com/pkg/errors"
)

const (
	SubSystem = "TxBuilder" // For logger

	// DefaultVersion is the transaction version a new Builder starts with.
	DefaultVersion = int32(2)

	// DefaultMaximumFeeRate is the safety-rail ceiling, in satoshis per virtual byte, consulted
	// only by Build.
	DefaultMaximumFeeRate = uint64(2500)
)

// Builder is a staged, safety-preserving construction engine for a single Bitcoin-compatible
// transaction. It is synchronous and single-threaded: every method either fully applies its
// change or leaves the builder untouched, and none of them block.
type Builder struct {
	network        bitcoin.Network
	maximumFeeRate uint64

	tx     *wire.MsgTx
	inputs []*InputState

	// prevTxSet guarantees outpoint uniqueness across the builder's inputs. Keyed on
	// "<txid_hex>:<vout>"; insertion order carries no meaning.
	prevTxSet map[string]struct{}
}

// NewBuilder returns an empty Builder for network: version 2, locktime 0, no inputs or outputs.
func NewBuilder(ctx context.Context, network bitcoin.Network) *Builder {
	logger.Verbose(ctx, "%s : new builder", SubSystem)

	return &Builder{
		network:        network,
		maximumFeeRate: DefaultMaximumFeeRate,
		tx:             wire.NewMsgTx(DefaultVersion),
		prevTxSet:      make(map[string]struct{}),
	}
}

// SetMaximumFeeRate overrides the default absurd-fee ceiling (2500 sat/vbyte) consulted by Build.
func (b *Builder) SetMaximumFeeRate(rate uint64) {
	b.maximumFeeRate = rate
}

// Network returns the chain parameters this builder validates addresses and keys against.
func (b *Builder) Network() bitcoin.Network {
	return b.network
}

// TxRef is a dynamic reference to a prior transaction: a raw hash, a hex-encoded hash, or a whole
// Transaction. Only the Transaction case can auto-populate the referenced output's script and
// value. Construct with TxRefHash, TxRefHex, or TxRefTransaction.
type TxRef struct {
	hash *bitcoin.Hash32
	hex  string
	tx   *wire.MsgTx
}

// TxRefHash references a prior transaction by its 32 byte hash.
func TxRefHash(hash bitcoin.Hash32) TxRef {
	return TxRef{hash: &hash}
}

// TxRefHex references a prior transaction by a 64 character hex encoding of its hash.
func TxRefHex(s string) TxRef {
	return TxRef{hex: s}
}

// TxRefTransaction references a prior transaction directly, so the output being spent can be
// harvested for its locking script and value without the caller supplying them.
func TxRefTransaction(tx *wire.MsgTx) TxRef {
	return TxRef{tx: tx}
}

func (r TxRef) resolve() (*bitcoin.Hash32, *wire.MsgTx, error) {
	switch {
	case r.tx != nil:
		return r.tx.TxHash(), r.tx, nil
	case r.hash != nil:
		return r.hash, nil, nil
	case len(r.hex) > 0:
		hash, err := bitcoin.NewHash32FromStr(r.hex)
		if err != nil {
			return nil, nil, errors.Wrap(err, "hash hex")
		}
		return hash, nil, nil
	}
	return nil, nil, errors.New("empty transaction reference")
}

// OutputTarget is either an address string, resolved against the builder's network, or a raw
// output script. Construct with TargetAddress or TargetScript.
type OutputTarget struct {
	address string
	script  []byte
}

// TargetAddress builds an output paying the given address (base58check or bech32).
func TargetAddress(address string) OutputTarget {
	return OutputTarget{address: address}
}

// TargetScript builds an output paying a raw locking script directly.
func TargetScript(script []byte) OutputTarget {
	return OutputTarget{script: script}
}

// AddInput appends a new input spending ref:vout. It fails with ErrInvalidState if any existing
// signature would be invalidated, with ErrInvalidArgument if ref points at a coinbase output, and
// with ErrDuplicate if the outpoint is already spent by this builder.
func (b *Builder) AddInput(ctx context.Context, ref TxRef, vout uint32, sequence *uint32,
	prevOutScript []byte) (int, error) {

	logger.Verbose(ctx, "%s : add input %d", SubSystem, vout)

	if !b.canModifyInputs() {
		logger.Debug(ctx, "%s : add input rejected, would invalidate signatures", SubSystem)
		return -1, newError(ErrInvalidState, "No, this would invalidate signatures")
	}

	hash, refTx, err := ref.resolve()
	if err != nil {
		return -1, newError(ErrInvalidArgument, err.Error())
	}

	if hash.IsZero() {
		return -1, newError(ErrInvalidArgument, "Coinbase input not supported")
	}

	seq := wire.MaxTxInSequenceNum
	if sequence != nil {
		seq = *sequence
	}

	script := prevOutScript
	var value *uint64
	if refTx != nil {
		if int(vout) >= len(refTx.TxOut) {
			return -1, newError(ErrInvalidArgument, fmt.Sprintf("Output index out of range: %d", vout))
		}
		out := refTx.TxOut[vout]
		script = out.LockingScript
		v := out.Value
		value = &v
	}

	index, err := b.addInputUnsafe(*hash, vout, seq, script)
	if err != nil {
		return -1, err
	}

	if value != nil {
		b.inputs[index].Value = value
	}

	return index, nil
}

// addInputUnsafe appends the input without running the mutation gate. Used by AddInput (which
// has already run the gate) and by FromTransaction (replaying a transaction the gate never
// applies to).
func (b *Builder) addInputUnsafe(hash bitcoin.Hash32, vout uint32, sequence uint32,
	prevOutScript []byte) (int, error) {

	key := prevTxKey(hash, vout)
	if _, exists := b.prevTxSet[key]; exists {
		return -1, newError(ErrDuplicate, fmt.Sprintf("Duplicate TxOut: %s", key))
	}

	state := &InputState{
		Sequence:      sequence,
		PrevOutScript: prevOutScript,
	}
	if len(prevOutScript) > 0 {
		state.PrevOutType = classifyOutput(prevOutScript)
	}

	txIn := wire.NewTxIn(wire.NewOutPoint(&hash, vout), nil)
	txIn.Sequence = sequence
	b.tx.AddTxIn(txIn)

	b.inputs = append(b.inputs, state)
	b.prevTxSet[key] = struct{}{}

	return len(b.inputs) - 1, nil
}

func prevTxKey(hash bitcoin.Hash32, vout uint32) string {
	return fmt.Sprintf("%s:%d", hash.String(), vout)
}

// AddOutput appends a new output paying target. It fails with ErrInvalidState if any existing
// signature would be invalidated, and with ErrInvalidArgument if target is an address that
// doesn't belong to the builder's network.
func (b *Builder) AddOutput(ctx context.Context, target OutputTarget, value uint64) (int, error) {
	logger.Verbose(ctx, "%s : add output", SubSystem)

	if !b.canModifyOutputs() {
		logger.Debug(ctx, "%s : add output rejected, would invalidate signatures", SubSystem)
		return -1, newError(ErrInvalidState, "No, this would invalidate signatures")
	}

	script := target.script
	if len(target.address) > 0 {
		address, err := bitcoin.DecodeAddress(target.address)
		if err != nil || address.Network() != b.network {
			return -1, newError(ErrInvalidArgument, "Invalid version or Network mismatch")
		}

		script, err = address.RawAddress().LockingScript()
		if err != nil {
			return -1, newError(ErrInvalidArgument, err.Error())
		}
	}

	b.tx.AddTxOut(wire.NewTxOut(value, script))
	return len(b.tx.TxOut) - 1, nil
}

// SetLockTime sets the transaction locktime. It fails with ErrInvalidArgument if v is out of
// uint32 range, and with ErrInvalidState if any input already carries a signature (any change to
// locktime can invalidate every signature, regardless of hashType).
func (b *Builder) SetLockTime(ctx context.Context, v int64) error {
	if v < 0 || v > math.MaxUint32 {
		return newError(ErrInvalidArgument, "Expected Uint32")
	}

	if b.hasAnySignature() {
		logger.Debug(ctx, "%s : set locktime rejected, would invalidate signatures", SubSystem)
		return newError(ErrInvalidState, "No, this would invalidate signatures")
	}

	b.tx.LockTime = uint32(v)
	return nil
}

// SetVersion sets the transaction version. It fails with ErrInvalidArgument if v is out of
// uint32 range.
func (b *Builder) SetVersion(ctx context.Context, v int64) error {
	if v < 0 || v > math.MaxUint32 {
		return newError(ErrInvalidArgument, "Expected Uint32")
	}

	b.tx.Version = int32(uint32(v))
	return nil
}
