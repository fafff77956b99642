// Package cmdinfo implements the InfoMap capability: given a raw request,
// which argument positions hold keys. The cluster core consults this to
// route requests without knowing anything about individual command
// semantics.
package cmdinfo

import "strings"

// InfoMap answers which arguments of a raw request are keys.
type InfoMap interface {
	// KeysForRequest returns the keys of a request and whether the command
	// is known at all. A known command with no keys returns (nil, true).
	// An unknown command name returns (nil, false).
	KeysForRequest(args [][]byte) (keys [][]byte, known bool)
}

type keyShape int

const (
	shapeNone        keyShape = iota // no keys, e.g. PING, MULTI
	shapeSingle                      // one key at args[1], e.g. GET
	shapeAll                         // every remaining arg is a key, e.g. DEL
	shapeInterleaved                 // alternating key/value pairs, e.g. MSET
)

type table map[string]keyShape

// Default returns an InfoMap covering the common single-key, multi-key and
// no-key command shapes, enough to exercise every routing path in the
// cluster core: single-slot lookups, cross-slot detection, key-less
// routing, and the broadcast command set.
func Default() InfoMap {
	return table{
		"GET":      shapeSingle,
		"SET":      shapeSingle,
		"SETNX":    shapeSingle,
		"SETEX":    shapeSingle,
		"GETSET":   shapeSingle,
		"APPEND":   shapeSingle,
		"INCR":     shapeSingle,
		"DECR":     shapeSingle,
		"INCRBY":   shapeSingle,
		"DECRBY":   shapeSingle,
		"TTL":      shapeSingle,
		"PTTL":     shapeSingle,
		"EXPIRE":   shapeSingle,
		"PERSIST":  shapeSingle,
		"TYPE":     shapeSingle,
		"HGET":     shapeSingle,
		"HSET":     shapeSingle,
		"HDEL":     shapeSingle,
		"HGETALL":  shapeSingle,
		"LPUSH":    shapeSingle,
		"RPUSH":    shapeSingle,
		"LPOP":     shapeSingle,
		"RPOP":     shapeSingle,
		"LRANGE":   shapeSingle,
		"SADD":     shapeSingle,
		"SREM":     shapeSingle,
		"SMEMBERS": shapeSingle,
		"ZADD":     shapeSingle,
		"ZRANGE":   shapeSingle,
		"ZSCORE":   shapeSingle,

		"DEL":    shapeAll,
		"EXISTS": shapeAll,
		"MGET":   shapeAll,
		"UNLINK": shapeAll,
		"WATCH":  shapeAll,

		"MSET":   shapeInterleaved,
		"MSETNX": shapeInterleaved,

		"PING":     shapeNone,
		"MULTI":    shapeNone,
		"EXEC":     shapeNone,
		"DISCARD":  shapeNone,
		"ASKING":   shapeNone,
		"FLUSHALL": shapeNone,
		"FLUSHDB":  shapeNone,
		"QUIT":     shapeNone,
		"UNWATCH":  shapeNone,
	}
}

func (t table) KeysForRequest(args [][]byte) ([][]byte, bool) {
	if len(args) == 0 {
		return nil, false
	}
	shape, known := t[strings.ToUpper(string(args[0]))]
	if !known {
		return nil, false
	}
	switch shape {
	case shapeNone:
		return nil, true
	case shapeSingle:
		if len(args) < 2 {
			return nil, true
		}
		return args[1:2], true
	case shapeAll:
		return args[1:], true
	case shapeInterleaved:
		keys := make([][]byte, 0, len(args)/2)
		for i := 1; i < len(args); i += 2 {
			keys = append(keys, args[i])
		}
		return keys, true
	default:
		return nil, true
	}
}
