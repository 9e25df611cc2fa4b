package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	casAlgorithmPrefix = "sha256"
	localBackendName   = "local"
)

// casKeyPattern matches the only keys LocalCAS ever issues.
var casKeyPattern = regexp.MustCompile(`^sha256/[0-9a-f]{2}/[0-9a-f]{2}/[0-9a-f]{64}$`)

// LocalCAS stores payloads in a local content-addressed directory tree.
type LocalCAS struct {
	root string
}

// NewLocalCAS creates a local CAS rooted at root.
func NewLocalCAS(root string) (*LocalCAS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local cas root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("create cas tree: %w", err)
	}
	return &LocalCAS{root: abs}, nil
}

// Name implements BlobStore.
func (c *LocalCAS) Name() string { return localBackendName }

// Root returns the absolute directory holding the tree.
func (c *LocalCAS) Root() string { return c.root }

// Put spools r to a temp file while hashing, then moves the file under its
// digest. An existing payload is left untouched.
func (c *LocalCAS) Put(ctx context.Context, r io.Reader) (PutResult, error) {
	if c == nil {
		return PutResult{}, errors.New("blob store is not configured")
	}
	if r == nil {
		return PutResult{}, errors.New("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}

	tmpPath, result, err := c.spool(r)
	if err != nil {
		return PutResult{}, err
	}
	if err := c.commit(tmpPath, result.BlobKey); err != nil {
		_ = os.Remove(tmpPath)
		return PutResult{}, err
	}
	return result, nil
}

// spool writes r to a temp file under root/tmp and returns its digest.
func (c *LocalCAS) spool(r io.Reader) (string, PutResult, error) {
	tmp, err := os.CreateTemp(filepath.Join(c.root, "tmp"), "put-*")
	if err != nil {
		return "", PutResult{}, err
	}

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(tmp, h), r)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return "", PutResult{}, err
	}

	digest := hex.EncodeToString(h.Sum(nil))
	return tmp.Name(), PutResult{SHA256: digest, SizeBytes: n, BlobKey: casKey(digest)}, nil
}

// commit moves tmpPath to the location of key. When the payload already
// exists, whether before the call or from a concurrent writer, the temp
// file is dropped.
func (c *LocalCAS) commit(tmpPath, key string) error {
	dst := filepath.Join(c.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if exists(dst) {
		return os.Remove(tmpPath)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		if exists(dst) {
			return os.Remove(tmpPath)
		}
		return err
	}
	return nil
}

// Open returns a reader for the payload stored under key.
func (c *LocalCAS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if c == nil {
		return nil, errors.New("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if !casKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("invalid blob key %q", key)
	}

	f, err := os.Open(filepath.Join(c.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	return f, err
}

// casKey shards by the first two digest bytes: sha256/ab/cd/abcd....
func casKey(digest string) string {
	return fmt.Sprintf("%s/%s/%s/%s", casAlgorithmPrefix, digest[0:2], digest[2:4], digest)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
