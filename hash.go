package rpgtl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a cache key from a text hash and a language pair.
func CacheKey(hash, sourceLang, targetLang string) string {
	return hash + ":" + NormalizeLang(sourceLang) + ":" + NormalizeLang(targetLang)
}
