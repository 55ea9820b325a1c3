// ABOUTME: Content hashing for ingestion deduplication
// ABOUTME: Streams file bytes into SHA-256 so identical content yields identical ids
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/harper/docqa/internal/models"
)

// BlockSize is the read buffer used when streaming content into the digest
const BlockSize = 1 << 20

// HashFile returns the lowercase hex SHA-256 digest of the file's bytes
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %v", models.ErrIO, path, err)
	}
	defer f.Close()

	sum, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return sum, nil
}

// HashReader returns the hex SHA-256 digest of everything read from r
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
