package cluster

import (
	"strconv"
	"strings"

	"clusterpipe/wire"
)

// isMoved reports whether reply is an error whose payload begins with the
// literal MOVED prefix.
func isMoved(reply wire.Reply) bool {
	if !reply.IsError() {
		return false
	}
	fields := strings.Fields(reply.Str)
	return len(fields) > 0 && fields[0] == "MOVED"
}

// parseMoved extracts the slot and host:port from a MOVED error payload.
func parseMoved(reply wire.Reply) (slot uint16, addr string, ok bool) {
	if !reply.IsError() {
		return 0, "", false
	}
	fields := strings.Fields(reply.Str)
	if len(fields) != 3 || fields[0] != "MOVED" {
		return 0, "", false
	}
	n, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(n), fields[2], true
}

// parseAsk extracts the slot, host and port from an ASK error payload.
func parseAsk(reply wire.Reply) (slot uint16, host string, port uint16, ok bool) {
	if !reply.IsError() {
		return 0, "", 0, false
	}
	fields := strings.Fields(reply.Str)
	if len(fields) != 3 || fields[0] != "ASK" {
		return 0, "", 0, false
	}
	n, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return 0, "", 0, false
	}
	h, p, ok := splitHostPort(fields[2])
	if !ok {
		return 0, "", 0, false
	}
	return uint16(n), h, p, true
}

func splitHostPort(hostport string) (host string, port uint16, ok bool) {
	i := strings.LastIndexByte(hostport, ':')
	if i < 0 {
		return "", 0, false
	}
	p, err := strconv.ParseUint(hostport[i+1:], 10, 16)
	if err != nil {
		return "", 0, false
	}
	return hostport[:i], uint16(p), true
}

// isTryAgain reports whether reply is a TRYAGAIN error, which propagates
// to the caller unchanged rather than being retried.
func isTryAgain(reply wire.Reply) bool {
	if !reply.IsError() {
		return false
	}
	fields := strings.Fields(reply.Str)
	return len(fields) > 0 && fields[0] == "TRYAGAIN"
}
