package utils

import "testing"

var cryptoKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := Encrypt([]byte("IGQWRPa-long-access-token"), cryptoKey)
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if encrypted == "IGQWRPa-long-access-token" {
		t.Error("ciphertext must differ from plaintext")
	}

	decrypted, err := Decrypt(encrypted, cryptoKey)
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if decrypted != "IGQWRPa-long-access-token" {
		t.Errorf("round trip mismatch: %q", decrypted)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), cryptoKey)
	if err != nil {
		t.Fatal(err)
	}

	wrongKey := []byte("ffffffffffffffffffffffffffffffff")
	if _, err := Decrypt(encrypted, wrongKey); err == nil {
		t.Error("expected error decrypting with the wrong key")
	}
}

func TestDecryptGarbage(t *testing.T) {
	if _, err := Decrypt("not-base64!!", cryptoKey); err == nil {
		t.Error("expected error for invalid ciphertext")
	}
}
