package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"unicode/utf8"
)

const defaultHashSalt = "default-salt-change-in-production"

var hashSalt string

func init() {
	// In production, set LOG_HASH_SALT.
	InitHashSalt(os.Getenv("LOG_HASH_SALT"))
}

// InitHashSalt sets the salt used by HashUserID and HashChatID.
func InitHashSalt(salt string) {
	if salt == "" {
		salt = defaultHashSalt
	}
	hashSalt = salt
}

func hashID(id int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:%s", id, hashSalt))
	return hex.EncodeToString(sum[:])[:8]
}

// HashUserID creates a privacy-preserving hash of a user ID.
func HashUserID(userID int64) string {
	return hashID(userID)
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hashID(chatID)
}

// SanitizeText redacts user-provided text such as trip names, keeping only its length
// and, for longer values, a short prefix.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	n := utf8.RuneCountInString(text)
	if n <= 10 {
		return fmt.Sprintf("<%d chars>", n)
	}

	prefix := []rune(text)[:3]
	return fmt.Sprintf("%s...<%d chars>", string(prefix), n)
}
