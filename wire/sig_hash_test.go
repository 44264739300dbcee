package wire

import (
	"bytes"
	"testing"

	"github.com/shardforge/txbuilder/bitcoin"
)

func testSigHashTx(t *testing.T) *MsgTx {
	tx := NewMsgTx(2)

	var prevHash bitcoin.Hash32
	prevHash[0] = 0x01
	tx.AddTxIn(NewTxIn(NewOutPoint(&prevHash, 0), nil))
	tx.AddTxIn(NewTxIn(NewOutPoint(&prevHash, 1), nil))

	key, err := bitcoin.GenerateKey(bitcoin.MainNet)
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	lockingScript, err := bitcoin.NewP2PKHLockingScript(bitcoin.Hash160(key.PublicKey().Bytes()))
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}

	tx.AddTxOut(NewTxOut(1000, lockingScript))
	tx.AddTxOut(NewTxOut(2000, lockingScript))
	return tx
}

func TestHashForSignature_Deterministic(t *testing.T) {
	tx := testSigHashTx(t)
	script := []byte{0x76, 0xa9, 0x14}

	hash1, err := tx.HashForSignature(0, script, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	hash2, err := tx.HashForSignature(0, script, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	if !bytes.Equal(hash1[:], hash2[:]) {
		t.Errorf("Expected identical hashes for identical inputs")
	}
}

func TestHashForSignature_DoesNotMutateOriginal(t *testing.T) {
	tx := testSigHashTx(t)
	before := tx.Clone()

	if _, err := tx.HashForSignature(0, []byte{0x51}, SigHashAll); err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}

	for i, in := range tx.TxIn {
		if !bytes.Equal(in.UnlockingScript, before.TxIn[i].UnlockingScript) {
			t.Errorf("HashForSignature mutated input %d's unlocking script", i)
		}
	}
	if len(tx.TxOut) != len(before.TxOut) {
		t.Errorf("HashForSignature mutated the output set")
	}
}

func TestHashForSignature_HashTypeChangesDigest(t *testing.T) {
	tx := testSigHashTx(t)
	script := []byte{0x51}

	allHash, err := tx.HashForSignature(0, script, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	noneHash, err := tx.HashForSignature(0, script, SigHashNone)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	singleHash, err := tx.HashForSignature(0, script, SigHashSingle)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	anyoneHash, err := tx.HashForSignature(0, script, SigHashAll|SigHashAnyOneCanPay)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}

	hashes := [][]byte{allHash[:], noneHash[:], singleHash[:], anyoneHash[:]}
	for i := 0; i < len(hashes); i++ {
		for j := i + 1; j < len(hashes); j++ {
			if bytes.Equal(hashes[i], hashes[j]) {
				t.Errorf("Expected distinct hashType %d and %d to produce distinct digests", i, j)
			}
		}
	}
}

func TestHashForSignature_SingleWithoutMatchingOutput(t *testing.T) {
	tx := testSigHashTx(t)
	// Input 1 has no corresponding output at the same index once one is dropped.
	tx.TxOut = tx.TxOut[:1]

	hash, err := tx.HashForSignature(1, []byte{0x51}, SigHashSingle)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}

	var want bitcoin.Hash32
	want[0] = 0x01
	if !bytes.Equal(hash[:], want[:]) {
		t.Errorf("Expected the historical SIGHASH_SINGLE placeholder hash\n  got  : %x\n  want : %x",
			hash[:], want[:])
	}
}

func TestHashForSignature_OutOfRangeInput(t *testing.T) {
	tx := testSigHashTx(t)
	if _, err := tx.HashForSignature(len(tx.TxIn), []byte{0x51}, SigHashAll); err == nil {
		t.Errorf("Expected an error hashing an out of range input")
	}
}

func TestHashForWitnessV0_Deterministic(t *testing.T) {
	tx := testSigHashTx(t)
	script := []byte{0x76, 0xa9, 0x14}

	hash1, err := tx.HashForWitnessV0(0, script, 10000, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	hash2, err := tx.HashForWitnessV0(0, script, 10000, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	if !bytes.Equal(hash1[:], hash2[:]) {
		t.Errorf("Expected identical hashes for identical inputs")
	}
}

func TestHashForWitnessV0_ValueChangesDigest(t *testing.T) {
	tx := testSigHashTx(t)
	script := []byte{0x51}

	hash1, err := tx.HashForWitnessV0(0, script, 10000, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	hash2, err := tx.HashForWitnessV0(0, script, 20000, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	if bytes.Equal(hash1[:], hash2[:]) {
		t.Errorf("Expected the committed value to affect the BIP143 digest")
	}
}

func TestHashForWitnessV0_DiffersFromLegacy(t *testing.T) {
	tx := testSigHashTx(t)
	script := []byte{0x51}

	legacy, err := tx.HashForSignature(0, script, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}
	witness, err := tx.HashForWitnessV0(0, script, 10000, SigHashAll)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}

	if bytes.Equal(legacy[:], witness[:]) {
		t.Errorf("Expected legacy and BIP143 pre-images to diverge")
	}
}

func TestHashForWitnessV0_OutOfRangeInput(t *testing.T) {
	tx := testSigHashTx(t)
	if _, err := tx.HashForWitnessV0(len(tx.TxIn), []byte{0x51}, 1000, SigHashAll); err == nil {
		t.Errorf("Expected an error hashing an out of range input")
	}
}

func TestHashForWitnessV0_AnyoneCanPayIgnoresOtherInputs(t *testing.T) {
	tx := testSigHashTx(t)
	script := []byte{0x51}

	before, err := tx.HashForWitnessV0(0, script, 10000, SigHashAll|SigHashAnyOneCanPay)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}

	// Mutating the other input's sequence must not affect an ANYONECANPAY digest.
	tx.TxIn[1].Sequence = 0xfffffffe

	after, err := tx.HashForWitnessV0(0, script, 10000, SigHashAll|SigHashAnyOneCanPay)
	if err != nil {
		t.Fatalf("Failed to hash : %s", err)
	}

	if !bytes.Equal(before[:], after[:]) {
		t.Errorf("Expected ANYONECANPAY digest to be independent of other inputs' sequence")
	}
}
