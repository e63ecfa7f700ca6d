// Package state persists build records so repeated builds can skip
// unchanged inputs.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/source"
)

// ComputeSignature returns a deterministic hash over the complete build
// input: every discovered file (path and content) plus the configuration.
//
// Two builds with identical signatures produce identical output trees, so a
// matching signature allows skipping emission entirely.
func ComputeSignature(files []source.File, cfg *config.Config) (string, error) {
	sorted := make([]source.File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	h := sha256.New()
	for _, f := range sorted {
		_, _ = h.Write([]byte(f.RelPath))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(f.Data)
		_, _ = h.Write([]byte{0})
	}

	cfgBytes, err := cfg.Marshal()
	if err != nil {
		return "", err
	}
	_, _ = h.Write(cfgBytes)

	return hex.EncodeToString(h.Sum(nil)), nil
}
