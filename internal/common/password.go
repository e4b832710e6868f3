package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// NewBotToken returns a random token and its bcrypt hash. Only the hash is stored.
func NewBotToken() (token, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return token, string(hashedBytes), nil
}

func CheckBotToken(token, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
}

// BotKey is what a bot presents to post messages: "<user id>-<token>".
func BotKey(userID, token string) string {
	return userID + "-" + token
}

// SplitBotKey separates a bot key at its last dash; user IDs are UUIDs and
// contain dashes themselves, tokens are hex and never do.
func SplitBotKey(key string) (userID, token string, err error) {
	i := strings.LastIndexByte(key, '-')
	if i <= 0 || i == len(key)-1 {
		return "", "", ErrInvalidBotKey
	}
	return key[:i], key[i+1:], nil
}
