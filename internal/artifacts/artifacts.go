// Package artifacts stores downloaded paper PDFs on disk, keyed by period and
// paper key, with sha256 digests recorded so repeat runs can skip work.
package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"apd/internal/services"
)

// Store lays artifacts out as <root>/<period>/<key>.pdf.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The directory is created on first
// write, not here.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Path returns the on-disk location for an artifact without touching disk.
func (s *Store) Path(periodID, key string) string {
	return filepath.Join(s.root, periodID, sanitize(key)+".pdf")
}

// Put writes content for the given item and returns the stored path and
// sha256 digest. Writes go through a temp file and rename so a crashed run
// never leaves a truncated artifact at the final path.
func (s *Store) Put(periodID, key string, content io.Reader) (path string, digest string, err error) {
	final := s.Path(periodID, key)
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return "", "", services.Wrap(services.ErrTransient, "artifacts", "mkdir", "Failed to create artifact directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(final), "."+sanitize(key)+".*.partial")
	if err != nil {
		return "", "", services.Wrap(services.ErrTransient, "artifacts", "create temp", "Failed to create temporary artifact file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	hasher := sha256.New()
	if _, err = io.Copy(io.MultiWriter(tmp, hasher), content); err != nil {
		return "", "", services.Wrap(services.ErrTransient, "artifacts", "write", "Failed to write artifact content", err)
	}
	if err = tmp.Close(); err != nil {
		return "", "", services.Wrap(services.ErrTransient, "artifacts", "close", "Failed to finalize artifact file", err)
	}
	if err = os.Rename(tmpName, final); err != nil {
		return "", "", services.Wrap(services.ErrTransient, "artifacts", "rename", "Failed to move artifact into place", err)
	}
	return final, hex.EncodeToString(hasher.Sum(nil)), nil
}

// Exists reports whether the artifact for an item is already on disk with
// the expected digest. This is the idempotency check for the download step.
func (s *Store) Exists(periodID, key, expectedDigest string) (bool, error) {
	return s.Verify(s.Path(periodID, key), expectedDigest)
}

// Verify reports whether the artifact at path exists and matches the expected
// sha256 digest. A missing file is not an error, just a false result.
func (s *Store) Verify(path, expectedDigest string) (bool, error) {
	if path == "" || expectedDigest == "" {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, services.Wrap(services.ErrTransient, "artifacts", "open", "Failed to open artifact for verification", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return false, services.Wrap(services.ErrTransient, "artifacts", "hash", "Failed to hash artifact", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)) == strings.ToLower(strings.TrimSpace(expectedDigest)), nil
}

// sanitize keeps paper keys filesystem-safe. Keys like "2601.03252" pass
// through unchanged.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}

// Digest hashes an arbitrary byte slice, for callers that already hold the
// full content in memory.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
