package core

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/blake2b"
)

func TestHashFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"hello world", "hello world"},
		{"multiline content", "line1\nline2\nline3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name+".txt")
			if err := os.WriteFile(testFile, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to create test file: %v", err)
			}

			sum := sha256.Sum256([]byte(tt.content))
			got, err := HashFile(testFile, "sha256")
			if err != nil {
				t.Fatalf("HashFile(sha256) error = %v", err)
			}
			if want := hex.EncodeToString(sum[:]); got != want {
				t.Errorf("HashFile(sha256) = %v, want %v", got, want)
			}

			b2 := blake2b.Sum256([]byte(tt.content))
			got, err = HashFile(testFile, "blake2b")
			if err != nil {
				t.Fatalf("HashFile(blake2b) error = %v", err)
			}
			if want := hex.EncodeToString(b2[:]); got != want {
				t.Errorf("HashFile(blake2b) = %v, want %v", got, want)
			}
		})
	}

	t.Run("known sha256 value", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "known.txt")
		os.WriteFile(testFile, []byte("hello world"), 0o644)
		got, _ := HashFile(testFile, "")
		if got != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
			t.Errorf("HashFile() = %v", got)
		}
	})
}

func TestHashFile_Errors(t *testing.T) {
	if _, err := HashFile("/nonexistent/file/that/should/not/exist.txt", "sha256"); err == nil {
		t.Error("HashFile() expected error for non-existent file, got nil")
	}
	f := filepath.Join(t.TempDir(), "x")
	os.WriteFile(f, []byte("x"), 0o644)
	if _, err := HashFile(f, "md5"); err == nil {
		t.Error("HashFile() expected error for unsupported algorithm, got nil")
	}
}
