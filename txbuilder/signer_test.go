package txbuilder

import (
	"context"
	"testing"

	"github.com/shardforge/txbuilder/bitcoin"
	"github.com/shardforge/txbuilder/wire"
)

func TestSignWPKH(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	address, err := bitcoin.NewAddressWPKH(bitcoin.Hash160(key.PublicKey().Bytes()), bitcoin.TestNet)
	if err != nil {
		t.Fatalf("Failed to create wpkh address : %s", err)
	}
	lockingScript, err := address.RawAddress().LockingScript()
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}

	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxOut(wire.NewTxOut(10000, lockingScript))

	if _, err := b.AddInput(ctx, TxRefTransaction(prevTx), 0, nil, nil); err != nil {
		t.Fatalf("Failed to add input : %s", err)
	}

	pkhAddress := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(pkhAddress.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{}); err != nil {
		t.Fatalf("Failed to sign wpkh input : %s", err)
	}

	tx, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}

	if len(tx.TxIn[0].UnlockingScript) != 0 {
		t.Errorf("Expected an empty scriptSig for a native witness input")
	}
	if len(tx.TxIn[0].Witness) != 2 {
		t.Fatalf("Expected a 2 item witness, got %d", len(tx.TxIn[0].Witness))
	}
}

func TestSignP2SHWrappedWPKH(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	pkh := bitcoin.Hash160(key.PublicKey().Bytes())
	// A P2SH-P2WPKH redeem script is the witness program itself: OP_0 <pkh>.
	redeemScript := append([]byte{0x00, 0x14}, pkh...)

	shAddress, err := bitcoin.NewAddressSH(bitcoin.Hash160(redeemScript), bitcoin.TestNet)
	if err != nil {
		t.Fatalf("Failed to build P2SH address : %s", err)
	}
	lockingScript, err := shAddress.RawAddress().LockingScript()
	if err != nil {
		t.Fatalf("Failed to build locking script : %s", err)
	}

	prevTx := wire.NewMsgTx(2)
	prevTx.AddTxOut(wire.NewTxOut(10000, lockingScript))

	if _, err := b.AddInput(ctx, TxRefTransaction(prevTx), 0, nil, nil); err != nil {
		t.Fatalf("Failed to add input : %s", err)
	}

	pkhAddress := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(pkhAddress.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	if err := b.Sign(ctx, 0, key, SignOptions{RedeemScript: redeemScript}); err != nil {
		t.Fatalf("Failed to sign P2SH-P2WPKH input : %s", err)
	}

	tx, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Failed to build : %s", err)
	}

	if len(tx.TxIn[0].UnlockingScript) == 0 {
		t.Errorf("Expected a non-empty scriptSig carrying the redeem script push")
	}
	if len(tx.TxIn[0].Witness) != 2 {
		t.Fatalf("Expected a 2 item witness, got %d", len(tx.TxIn[0].Witness))
	}
}

func TestSignDuplicateRejected(t *testing.T) {
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

	err := b.Sign(ctx, 0, key, SignOptions{})
	if err == nil || !IsErrorKind(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate re-signing the same input, got %v", err)
	}
}

func TestSignWrongKeyRejected(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	wrongKey := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)
	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	err := b.Sign(ctx, 0, wrongKey, SignOptions{})
	if err == nil || !IsErrorKind(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument signing with a non-matching key, got %v", err)
	}
}

func TestBuildIncompleteLeavesMissingSignature(t *testing.T) {
	ctx := context.Background()
	key := testKey(t)
	b := NewBuilder(ctx, bitcoin.TestNet)

	fundedInput(t, ctx, b, key, 10000)
	address := testPKHAddress(t, key)
	if _, err := b.AddOutput(ctx, TargetAddress(address.String()), 9000); err != nil {
		t.Fatalf("Failed to add output : %s", err)
	}

	tx, err := b.BuildIncomplete(ctx)
	if err != nil {
		t.Fatalf("Failed to build incomplete transaction : %s", err)
	}
	if len(tx.TxIn[0].UnlockingScript) != 0 {
		t.Errorf("Expected an empty scriptSig for an unsigned input")
	}

	if _, err := b.Build(ctx); err == nil || !IsErrorKind(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete from Build on an unsigned input, got %v", err)
	}
}
