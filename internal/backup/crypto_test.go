package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}

	if bytes.Equal(key1, DeriveKey("otherpassphrase", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	original := []byte("This is test database content with some data in it.")
	if err := os.WriteFile(srcPath, original, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "test-passphrase-123"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encrypted, _ := os.ReadFile(encPath)
	if bytes.Equal(encrypted, original) {
		t.Error("encrypted content should differ from original")
	}
	if len(encrypted) < saltSize+nonceSize {
		t.Fatalf("encrypted file too small: %d bytes", len(encrypted))
	}

	if err := DecryptFile(encPath, decPath, "test-passphrase-123"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	decrypted, _ := os.ReadFile(decPath)
	if !bytes.Equal(original, decrypted) {
		t.Error("decrypted content should match original")
	}
}

func TestEncryptFreshSaltPerFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	enc1 := filepath.Join(dir, "a.enc")
	enc2 := filepath.Join(dir, "b.enc")

	if err := os.WriteFile(srcPath, []byte("same content"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, enc1, "password"); err != nil {
		t.Fatalf("encrypt 1: %v", err)
	}
	if err := EncryptFile(srcPath, enc2, "password"); err != nil {
		t.Fatalf("encrypt 2: %v", err)
	}

	data1, _ := os.ReadFile(enc1)
	data2, _ := os.ReadFile(enc2)
	if bytes.Equal(data1[:saltSize], data2[:saltSize]) {
		t.Error("each encryption should use a fresh salt")
	}
	if bytes.Equal(data1, data2) {
		t.Error("same plaintext should not encrypt to same ciphertext")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	if err := os.WriteFile(srcPath, []byte("secret data"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "correct-password"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := DecryptFile(encPath, decPath, "wrong-password"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	if err := os.WriteFile(srcPath, []byte("secret data"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "password"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	data, _ := os.ReadFile(encPath)
	if len(data) > saltSize+nonceSize+1 {
		data[saltSize+nonceSize+1] ^= 0xFF
		os.WriteFile(encPath, data, 0600)
	}

	if err := DecryptFile(encPath, decPath, "password"); err == nil {
		t.Fatal("expected error with tampered ciphertext")
	}
}

func TestDecryptFileTooSmall(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "small.db.enc")
	decPath := filepath.Join(dir, "dec.db")

	os.WriteFile(encPath, []byte("too short"), 0600)

	if err := DecryptFile(encPath, decPath, "password"); err == nil {
		t.Fatal("expected error with file too small")
	}
}
