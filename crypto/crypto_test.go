package crypto

import (
	"bytes"
	"testing"

	lorem "github.com/drhodes/golorem"
	ecies "github.com/ecies/go"
)

func TestSignature(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("Failed generating key: %v", err)
	}
	message := []byte(lorem.Sentence(5, 10))
	signature, err := Sign(key, message)
	if err != nil {
		t.Fatalf("Failed signing: %v", err)
	}
	if len(signature) != signatureLength {
		t.Errorf("Signature length %d, want %d", len(signature), signatureLength)
	}
	if !Verify(Address(key), message, signature) {
		t.Errorf("Failed verifying own signature")
	}
	if Verify(Address(key), []byte("some other message"), signature) {
		t.Errorf("Signature verified for a different message")
	}
	other, _ := GenerateKey()
	if Verify(Address(other), message, signature) {
		t.Errorf("Signature verified for a different address")
	}
}

func TestRecoverRejectsShortSignature(t *testing.T) {
	if _, err := Recover([]byte("message"), []byte{1, 2, 3}); err != ErrInvalidSignature {
		t.Errorf("Expected ErrInvalidSignature, got %v", err)
	}
}

func TestEncryption(t *testing.T) {
	key, err := ecies.GenerateKey()
	if err != nil {
		t.Fatalf("Failed generating ecies key: %v", err)
	}
	message := []byte(lorem.Paragraph(1, 2))
	encrypted, err := Encrypt(key.PublicKey.Hex(true), message)
	if err != nil {
		t.Fatalf("Failed encrypting: %v", err)
	}
	if bytes.Equal(encrypted, message) {
		t.Errorf("Message not encrypted")
	}
	decrypted, err := Decrypt(key.Hex(), encrypted)
	if err != nil {
		t.Fatalf("Failed decrypting: %v", err)
	}
	if !bytes.Equal(decrypted, message) {
		t.Errorf("Decrypted message differs from the original")
	}
}

func TestCheckPubKey(t *testing.T) {
	key, _ := ecies.GenerateKey()
	if err := CheckPubKey(key.PublicKey.Hex(true)); err != nil {
		t.Errorf("Valid compressed key rejected: %v", err)
	}
	if err := CheckPubKey("0x" + key.PublicKey.Hex(false)); err != nil {
		t.Errorf("Valid prefixed key rejected: %v", err)
	}
	if err := CheckPubKey("02deadbeef"); err == nil {
		t.Errorf("Invalid key accepted")
	}
}
