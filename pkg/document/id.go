package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// GenerateID derives a 64 character lowercase hex identifier from a key.
func GenerateID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HashContent returns the hex SHA-256 digest of the given bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentID is keyed by the source path alone.
func DocumentID(sourcePath string) string {
	return GenerateID(sourcePath)
}

func PageID(sourcePath string, pageIndex int) string {
	return GenerateID("page_" + sourcePath + "_" + strconv.Itoa(pageIndex))
}

func LineID(pageID string, lineIndex int) string {
	return GenerateID(pageID + "_line_" + strconv.Itoa(lineIndex))
}

// WordID uses the raw top-left corner so identical text at different
// positions on the same page never collides.
func WordID(pageID string, x1, y1 float64, text string) string {
	return GenerateID(pageID + "_" + formatCoord(x1) + "_" + formatCoord(y1) + "_" + text)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsID reports whether s has the identifier shape.
func IsID(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
