package buildcache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/nbecore/optcore/internal/ir"
)

// recordVersion is bumped whenever the codec in codec.go changes shape,
// so a stale on-disk record invalidates itself rather than decoding into
// garbage, the same purpose the teacher's ext.Cache gives its own
// codegenVersion constant.
const recordVersion = "v1"

// Key computes the cache key for one declaration (§3 Domain Stack): a
// hash of its qualified name and the hash of the source it was compiled
// from, so editing any other declaration in the same module never
// invalidates this one. sourceHash is the caller's hash of whatever
// source text or build-IR serialization produced decl's input Expr;
// Key does not care how it was computed, only that it changes whenever
// the input does.
func Key(decl ir.Qualified, sourceHash []byte) string {
	h := sha256.New()
	h.Write([]byte(decl.String()))
	h.Write([]byte{0})
	h.Write(sourceHash)
	h.Write([]byte{0})
	h.Write([]byte(recordVersion))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
