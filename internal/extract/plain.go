package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns transcribed text as-is. Invalid UTF-8 sequences (common in
// legacy OCR exports) are replaced with the replacement character.
func extractPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}
