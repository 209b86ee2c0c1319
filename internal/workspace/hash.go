package workspace

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash).
type Digest [32]byte

// Combine строит хеш: H( content || dep1 || dep2 ... ).
// Порядок deps должен быть детерминированным.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Short returns the first 12 hex digits.
func (d Digest) Short() string { return d.String()[:12] }
