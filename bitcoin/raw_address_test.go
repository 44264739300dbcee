package bitcoin

import (
	"testing"
)

func TestRawAddressPKH(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	ra, err := key.RawAddress()
	if err != nil {
		t.Fatalf("Failed to create raw address : %s", err)
	}

	if ra.Type() != ScriptTypePKH {
		t.Fatalf("Incorrect script type for raw address : got %d, want %d", ra.Type(), ScriptTypePKH)
	}

	pkh, err := ra.GetPublicKeyHash()
	if err != nil {
		t.Fatalf("Failed to get public key hash : %s", err)
	}

	if len(pkh) != ScriptHashLength {
		t.Fatalf("Incorrect public key hash length : got %d, want %d", len(pkh), ScriptHashLength)
	}

	script, err := ra.LockingScript()
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}

	t.Logf("Locking Script : %x", script)

	raParse, err := RawAddressFromLockingScript(script)
	if err != nil {
		t.Fatalf("Failed to parse locking script : %s", err)
	}

	if !ra.Equal(raParse) {
		t.Fatalf("Incorrect parsed raw address : got %x, want %x", raParse.Bytes(), ra.Bytes())
	}
}

func TestWPKH(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	pkh := Hash160(key.PublicKey().Bytes())

	ra, err := NewRawAddressWPKH(pkh)
	if err != nil {
		t.Fatalf("Failed to create raw address : %s", err)
	}

	if ra.Type() != ScriptTypeWPKH {
		t.Fatalf("Incorrect script type for raw address : got %d, want %d", ra.Type(), ScriptTypeWPKH)
	}

	script, err := ra.LockingScript()
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}

	if len(script) != 22 {
		t.Fatalf("Incorrect locking script length : got %d, want %d", len(script), 22)
	}

	raParse, err := RawAddressFromLockingScript(script)
	if err != nil {
		t.Fatalf("Failed to parse locking script : %s", err)
	}

	if !ra.Equal(raParse) {
		t.Fatalf("Incorrect parsed raw address : got %x, want %x", raParse.Bytes(), ra.Bytes())
	}
}

func TestRawAddressSH(t *testing.T) {
	sh := make([]byte, ScriptHashLength)
	sh[0] = 0x01

	ra, err := NewRawAddressSH(sh)
	if err != nil {
		t.Fatalf("Failed to create raw address : %s", err)
	}

	script, err := ra.LockingScript()
	if err != nil {
		t.Fatalf("Failed to create locking script : %s", err)
	}

	raParse, err := RawAddressFromLockingScript(script)
	if err != nil {
		t.Fatalf("Failed to parse locking script : %s", err)
	}

	if !ra.Equal(raParse) {
		t.Fatalf("Incorrect parsed raw address : got %x, want %x", raParse.Bytes(), ra.Bytes())
	}
}
