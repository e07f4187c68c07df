package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgnsrekt/chime/internal/prompt"
)

// keyHexLen truncates the digest to 160 bits, short enough for pleasant
// filenames and far past any collision concern at this cache's scale.
const keyHexLen = 40

const keyVersion = "v1"

// CacheKey derives the deterministic cache key for a request rendered
// with a concrete voice. The full canonical prompt is hashed, so changes
// anywhere in the goal, tone, or context produce a different key no
// matter how long the text is. The version prefix lets a future scheme
// change invalidate old entries cleanly.
func CacheKey(req Request, voice string) string {
	canonical := prompt.Canonical(req.Goal, req.Tone, req.Context)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", prompt.Normalize(req.ID), prompt.Normalize(voice), canonical)
	return keyVersion + "_" + hex.EncodeToString(h.Sum(nil))[:keyHexLen]
}
