package util

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"
)

// contentSpace namespaces the name based UUIDs derived from file contents
var contentSpace = uuid.MustParse("6a786c2e-676f-4a58-8c00-70726f626573")

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ContentUUID derives a stable version 5 UUID from raw bytes, so the same
// stream gets the same id wherever it is found
func ContentUUID(value []byte) string {
	return uuid.NewSHA1(contentSpace, value).String()
}
