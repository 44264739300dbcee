package txbuilder

import (
	"bytes"
	"context"
	"testing"

	"github.com/shardforge/txbuilder/bitcoin"
	"github.com/shardforge/txbuilder/wire"
)

func testKey(t *testing.T) bitcoin.Key {
	key, err := bitcoin.GenerateKey(bitcoin.TestNet)
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	return key
}

func testPKHAddress(t *testing.T, key bitcoin.Key) bitcoin.Address {
	address, err := bitcoin.NewAddressPKH(bitcoin.Hash160(key.PublicKey().Bytes()), bitcoin.TestNet)
	if err != nil {
		t.Fatalf("Failed to create address : %s", err)
	}
	return address
}

// fundedInput creates a prior transaction paying key's P2PKH address and adds it as an input to
// b, returning the input index.
func fundedInput(t *testing.T, ctx context.Context, b *Builder, key bitcoin.Key, value uint64) int {
	address := testPKHAddress(t, key)
	lockingScript, err := address.RawAddress().LockingScript()
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}

	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxOut(wire.NewTxOut(value, lockingScript))

	index, err := b.AddInput(ctx, TxRefTransaction(prevTx), 0, nil, nil)
	if err != nil {
		t.Fatalf("Failed to add input : %s", err)
	}
	return index
}

func TestAddInputDuplicateOutpoint(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	address := testPKHAddress(t, key)
	lockingScript, _ := address.RawAddress().LockingScript()
	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxOut(wire.NewTxOut(10000, lockingScript))

	if _, err := b.AddInput(ctx, TxRefTransaction(prevTx), 0, nil, nil); err != nil {
		t.Fatalf("Failed to add input : %s", err)
	}

	_, err := b.AddInput(ctx, TxRefTransaction(prevTx), 0, nil, nil)
	if err == nil {
		t.Fatalf("Expected duplicate outpoint error")
	}
	if !IsErrorKind(err, ErrDuplicate) {
		t.Errorf("Wrong error kind : got %s", err)
	}
	if err.Error() != "Duplicate TxOut: "+prevTx.TxHash().String()+":0" {
		t.Errorf("Wrong error message : got %q", err.Error())
	}
}

func TestAddInputRejectsCoinbase(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(ctx, bitcoin.TestNet)

	var zero bitcoin.Hash32
	_, err := b.AddInput(ctx, TxRefHash(zero), 0, nil, nil)
	if err == nil || !IsErrorKind(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for coinbase input, got %v", err)
	}
}

func TestSignPKHThenAddInputBlockedByAll(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{}); err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	other := testKey(t)
	otherAddress := testPKHAddress(t, other)
	lockingScript, _ := otherAddress.RawAddress().LockingScript()
	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxOut(wire.NewTxOut(5000, lockingScript))

	_, err := b.AddInput(ctx, TxRefTransaction(prevTx), 0, nil, nil)
	if err == nil || !IsErrorKind(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState adding input after SIGHASH_ALL signature, got %v", err)
	}
}

func TestSignHashNonePermitsLaterOutputs(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{HashType: wire.SigHashNone}); err != nil {
		t.Fatalf("Failed to sign with SIGHASH_NONE : %s", err)
	}

	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 500); err != nil {
		t.Errorf("Expected SIGHASH_NONE to permit a later output, got %s", err)
	}
}

func TestSignHashSingleBalancedAdditionsOnly(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	hashType := wire.SigHashSingle | wire.SigHashAnyOneCanPay
	if err := b.Sign(ctx, 0, key, SignOptions{HashType: hashType}); err != nil {
		t.Fatalf("Failed to sign with SIGHASH_SINGLE|ANYONECANPAY : %s", err)
	}

	// One input, one output: adding an output keeps nInputs <= nOutputs, so it must be allowed.
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 100); err != nil {
		t.Errorf("Expected balanced SIGHASH_SINGLE addition to be allowed, got %s", err)
	}

	// ANYONECANPAY permits new inputs; two more make three inputs against two outputs, which
	// SIGHASH_SINGLE cannot tolerate.
	other := testKey(t)
	otherAddress := testPKHAddress(t, other)
	lockingScript, _ := otherAddress.RawAddress().LockingScript()
	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxOut(wire.NewTxOut(5000, lockingScript))
	prevTx.AddTxOut(wire.NewTxOut(5000, lockingScript))

	for vout := uint32(0); vout < 2; vout++ {
		if _, err := b.AddInput(ctx, TxRefTransaction(prevTx), vout, nil, nil); err != nil {
			t.Fatalf("Adding an input never invalidates a SIGHASH_SINGLE|ANYONECANPAY signature : %s", err)
		}
	}

	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 50); err == nil {
		t.Errorf("Expected unbalanced SIGHASH_SINGLE addition to be rejected")
	} else if !IsErrorKind(err, ErrInvalidState) {
		t.Errorf("Wrong error kind : got %s", err)
	}
}

func TestBuildAbsurdFee(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)
	b.SetMaximumFeeRate(10)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key)
	// Leaves roughly 9700 sats of fee on a ~192 byte transaction, far over 10 sat/vbyte.
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 300); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{}); err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	_, err := b.Build(ctx)
	if err == nil || !IsErrorKind(err, ErrAbsurdFee) {
		t.Errorf("Expected ErrAbsurdFee, got %v", err)
	}
}

func TestBuildAndSignPKHRoundTrip(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{}); err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	tx, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}
	if len(tx.TxIn[0].UnlockingScript) == 0 {
		t.Errorf("Expected a non-empty scriptSig")
	}

	tx2, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Failed to build a second time : %s", err)
	}
	if !bytes.Equal(tx.TxHash()[:], tx2.TxHash()[:]) {
		t.Errorf("Build is not deterministic across repeated calls")
	}
}

func TestFromTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{}); err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	tx, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}

	rebuilt, err := FromTransaction(ctx, tx, bitcoin.TestNet)
	if err != nil {
		t.Fatalf("Failed to reconstruct builder : %s", err)
	}

	tx2, err := rebuilt.Build(ctx)
	if err != nil {
		t.Fatalf("Failed to rebuild reconstructed transaction : %s", err)
	}

	if *tx.TxHash() != *tx2.TxHash() {
		t.Errorf("FromTransaction round trip is not byte exact : got %s, want %s",
			tx2.TxHash(), tx.TxHash())
	}
}

func TestSetLockTimeOutOfRange(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(ctx, bitcoin.TestNet)

	if err := b.SetLockTime(ctx, -1); err == nil || !IsErrorKind(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for negative locktime, got %v", err)
	}

	if err := b.SetLockTime(ctx, 1<<32); err == nil || !IsErrorKind(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for overflowing locktime, got %v", err)
	}

	if err := b.SetLockTime(ctx, 500000); err != nil {
		t.Errorf("Failed to set valid locktime : %s", err)
	}
}

func TestSetLockTimeAfterSignatureRejected(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)
	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}
	if err := b.Sign(ctx, 0, key, SignOptions{}); err != nil {
		t.Fatalf("Failed to sign : %s", err)
	}

	if err := b.SetLockTime(ctx, 500000); err == nil || !IsErrorKind(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState setting locktime after signing, got %v", err)
	}
}

func TestAddOutputNetworkMismatch(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.MainNet)

	fundedInput(t, ctx, b, key, 10000)

	address := testPKHAddress(t, key) // testnet address used on a mainnet builder
	_, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000)
	if err == nil || !IsErrorKind(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for network mismatch, got %v", err)
	}
}
