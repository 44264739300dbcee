package wire

import (
	"bytes"
	"testing"

	"github.com/shardforge/txbuilder/bitcoin"
)

func testMsgTx(t *testing.T, witness bool) *MsgTx {
	tx := NewMsgTx(2)

	var prevHash bitcoin.Hash32
	prevHash[0] = 0x02
	in := NewTxIn(NewOutPoint(&prevHash, 0), []byte{0x00, 0x14, 0x01, 0x02})
	if witness {
		in.Witness = [][]byte{{0x01, 0x02, 0x03}, {0x04, 0x05}}
	}
	tx.AddTxIn(in)

	key, err := bitcoin.GenerateKey(bitcoin.MainNet)
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}
	lockingScript, err := bitcoin.NewP2PKHLockingScript(bitcoin.Hash160(key.PublicKey().Bytes()))
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}
	tx.AddTxOut(NewTxOut(5000, lockingScript))

	return tx
}

func TestMsgTx_SerializeDeserializeRoundTrip(t *testing.T) {
	tx := testMsgTx(t, true)

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("Failed to serialize tx : %s", err)
	}

	var recovered MsgTx
	if err := recovered.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Failed to deserialize tx : %s", err)
	}

	if recovered.Version != tx.Version {
		t.Errorf("Wrong version : got %d, want %d", recovered.Version, tx.Version)
	}
	if len(recovered.TxIn) != len(tx.TxIn) || len(recovered.TxOut) != len(tx.TxOut) {
		t.Fatalf("Wrong in/out counts : got %d/%d, want %d/%d", len(recovered.TxIn),
			len(recovered.TxOut), len(tx.TxIn), len(tx.TxOut))
	}
	if len(recovered.TxIn[0].Witness) != len(tx.TxIn[0].Witness) {
		t.Errorf("Witness not round-tripped : got %d items, want %d", len(recovered.TxIn[0].Witness),
			len(tx.TxIn[0].Witness))
	}
	if !recovered.TxHash().Equal(tx.TxHash()) {
		t.Errorf("Round-tripped tx hashes to a different txid")
	}
}

func TestMsgTx_TxHashIgnoresWitness(t *testing.T) {
	withWitness := testMsgTx(t, true)
	withoutWitness := testMsgTx(t, false)
	withoutWitness.TxIn[0].PreviousOutPoint = withWitness.TxIn[0].PreviousOutPoint
	withoutWitness.TxIn[0].UnlockingScript = withWitness.TxIn[0].UnlockingScript
	withoutWitness.TxOut[0].Value = withWitness.TxOut[0].Value
	withoutWitness.TxOut[0].LockingScript = withWitness.TxOut[0].LockingScript

	if !withWitness.TxHash().Equal(withoutWitness.TxHash()) {
		t.Errorf("Expected txid to be witness-agnostic per BIP141")
	}
	if !withWitness.HasWitness() {
		t.Errorf("Expected HasWitness to report true when a witness stack is present")
	}
	if withoutWitness.HasWitness() {
		t.Errorf("Expected HasWitness to report false with no witness stacks")
	}
}

func TestMsgTx_VirtualSizeSmallerWithWitness(t *testing.T) {
	withWitness := testMsgTx(t, true)
	withoutWitness := testMsgTx(t, false)

	var withBuf, withoutBuf bytes.Buffer
	if err := withWitness.Serialize(&withBuf); err != nil {
		t.Fatalf("Failed to serialize : %s", err)
	}
	if err := withoutWitness.Serialize(&withoutBuf); err != nil {
		t.Fatalf("Failed to serialize : %s", err)
	}

	vsize := withWitness.VirtualSize()
	if vsize <= 0 {
		t.Fatalf("Expected a positive virtual size, got %d", vsize)
	}
	if vsize >= withBuf.Len() {
		t.Errorf("Expected virtual size (%d) to be smaller than the full serialized size (%d) "+
			"for a witness transaction", vsize, withBuf.Len())
	}
	if withoutWitness.VirtualSize() != withoutBuf.Len() {
		t.Errorf("Expected virtual size to equal full size for a transaction with no witness data")
	}
}

func TestMsgTx_CloneIsIndependent(t *testing.T) {
	tx := testMsgTx(t, true)
	clone := tx.Clone()

	if !clone.TxHash().Equal(tx.TxHash()) {
		t.Errorf("Expected clone to hash identically to the original")
	}

	clone.TxIn[0].Sequence = 0xdeadbeef
	clone.TxOut[0].Value = 1
	clone.TxIn[0].Witness[0][0] = 0xff

	if tx.TxIn[0].Sequence == 0xdeadbeef {
		t.Errorf("Mutating the clone's input affected the original")
	}
	if tx.TxOut[0].Value == 1 {
		t.Errorf("Mutating the clone's output affected the original")
	}
	if tx.TxIn[0].Witness[0][0] == 0xff {
		t.Errorf("Mutating the clone's witness affected the original")
	}
}

func TestMsgTx_MarshalTextRoundTrip(t *testing.T) {
	tx := testMsgTx(t, false)

	text, err := tx.MarshalText()
	if err != nil {
		t.Fatalf("Failed to marshal text : %s", err)
	}

	var recovered MsgTx
	if err := recovered.UnmarshalText(text); err != nil {
		t.Fatalf("Failed to unmarshal text : %s", err)
	}

	if !recovered.TxHash().Equal(tx.TxHash()) {
		t.Errorf("Text round trip produced a different txid")
	}
}
