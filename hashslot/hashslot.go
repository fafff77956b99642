// Package hashslot maps keys to the 16384 hash slots a cluster shards its
// keyspace across.
package hashslot

import (
	"bytes"

	"github.com/howeyc/crc16"
)

// Count is the number of hash slots a cluster is divided into.
const Count = 16384

// Slot returns the hash slot for key, honoring the {tag} hashtag
// convention: if key contains a '{' followed by a non-empty substring
// followed by '}', only the bytes between the braces are hashed.
func Slot(key []byte) uint16 {
	return crc16.Checksum(tagged(key), crc16.CCITTFalseTable) % Count
}

// tagged returns the substring of key that should actually be hashed,
// applying the {tag} convention used to co-locate related keys on one
// slot.
func tagged(key []byte) []byte {
	open := bytes.IndexByte(key, '{')
	if open < 0 {
		return key
	}
	close := bytes.IndexByte(key[open+1:], '}')
	if close < 0 {
		return key
	}
	if close == 0 {
		// "{}" is not a tag: empty substring, hash the full key.
		return key
	}
	return key[open+1 : open+1+close]
}
