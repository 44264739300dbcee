package bitcoin

import (
	"bytes"
	"testing"
)

func TestSignatureDERRoundTrip(t *testing.T) {
	key, err := GenerateKey(MainNet)
	if err != nil {
		t.Fatalf("Failed to generate key : %s", err)
	}

	var hash Hash32
	copy(hash[:], bytes.Repeat([]byte{0x07}, Hash32Size))

	sig, err := key.Sign(hash)
	if err != nil {
		t.Fatalf("Failed to sign hash : %s", err)
	}

	encoded := sig.Bytes()

	decoded, err := SignatureFromBytes(encoded)
	if err != nil {
		t.Fatalf("Failed to decode DER signature : %s", err)
	}

	if decoded.R.Cmp(&sig.R) != 0 || decoded.S.Cmp(&sig.S) != 0 {
		t.Errorf("Decoded signature doesn't match : got R=%s S=%s, want R=%s S=%s",
			decoded.R.String(), decoded.S.String(), sig.R.String(), sig.S.String())
	}

	if err := decoded.Validate(); err != nil {
		t.Errorf("Decoded signature failed validation : %s", err)
	}
}

func TestSignatureFromBytesRejectsGarbage(t *testing.T) {
	if _, err := SignatureFromBytes([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Errorf("Expected an error decoding a too-short signature")
	}
}
