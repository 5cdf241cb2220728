// Package logfetcher turns an orderbook address and block range into a
// block-ordered, timestamp-complete log list (§4.9): chunked getLogs calls
// and a timestamp backfill pass, both bounded by a configurable
// concurrency cap and a manual retry budget.
package logfetcher

import (
	"strconv"
	"strings"

	"github.com/rainlanguage/raindex-go/raindexerr"
)

// ParseBlockNumber accepts "0x0"/"0x123" hex and plain decimal strings,
// rejecting anything else: empty string, a bare "0x" prefix with nothing
// after it, non-hex digits, a leading sign, or a fractional value. Matches
// the boundary behaviors a block-number field must honor regardless of
// which RPC node produced it.
func ParseBlockNumber(s string) (uint64, error) {
	if s == "" {
		return 0, &raindexerr.ErrBlockNumberParse{Input: s}
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return 0, &raindexerr.ErrBlockNumberParse{Input: s}
		}
		v, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return 0, &raindexerr.ErrBlockNumberParse{Input: s}
		}
		return v, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &raindexerr.ErrBlockNumberParse{Input: s}
	}
	return v, nil
}
