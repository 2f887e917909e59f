// Package cache implements an incremental compilation cache:
// content-addressed storage of type-checked modules, keyed by
// source hash and configuration hash, with precise invalidation driven by
// a declaration-signature hash and a declaration-dependency graph.
//
package cache

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"
)

// HashBytes returns the Blake3 hex digest of data, used for source-content
// hashes and the configuration hash: Blake3 over raw file bytes for
// sources, Blake3 over the serialized config record for the config hash.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile streams path through Blake3 without holding the whole file in
// memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashDeclarationSignature produces the deterministic, stable hash of a
// declaration's canonicalized typed signature, used as the fine-grained
// invalidation key: a changed signature hash means only that declaration
// (and its transitive callers) need rebuilding, not the whole module.
func HashDeclarationSignature(canonicalSignature []byte) uint64 {
	return xxhash.Sum64(canonicalSignature)
}
