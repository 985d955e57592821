package gsm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fields splits the value part of an information line on commas outside
// double quotes. Quotes are removed and fields are trimmed.
func fields(s string) []string {
	var (
		out   []string
		b     strings.Builder
		quote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			quote = !quote
		case c == ',' && !quote:
			out = append(out, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(out, strings.TrimSpace(b.String()))
}

// groups splits a list of parenthesized groups such as the +COPS=? reply.
// Text outside parentheses is ignored.
func groups(s string) []string {
	var (
		out   []string
		depth int
		quote bool
		start int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quote = !quote
		case quote:
		case c == '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case c == ')' && depth > 0:
			depth--
			if depth == 0 {
				out = append(out, s[start:i])
			}
		}
	}
	return out
}

// value returns the part of line after prefix.
func value(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}

func findLine(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if v, ok := value(l, prefix); ok {
			return v, true
		}
	}
	return "", false
}

// ints converts the leading n fields of s to integers.
func ints(s string, n int) ([]int, error) {
	f := fields(s)
	if len(f) < n {
		return nil, fmt.Errorf("%w: %q: want %d fields", ErrModem, s, n)
	}
	out := make([]int, n)
	for i := range n {
		v, err := strconv.Atoi(f[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrModem, s, err)
		}
		out[i] = v
	}
	return out, nil
}

func atoi(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

// parseClock parses the "yy/MM/dd,hh:mm:ss±zz" form used by +CCLK and
// message timestamps. zz is the offset from UTC in quarters of an hour.
func parseClock(s string) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if len(s) < 17 {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrModem, s)
	}
	t, err := time.Parse("06/01/02,15:04:05", s[:17])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q: %v", ErrModem, s, err)
	}
	if len(s) == 17 {
		return t, nil
	}
	q, err := strconv.Atoi(s[17:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp zone %q", ErrModem, s)
	}
	zone := time.FixedZone("", q*15*60)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone), nil
}

// parseCallInfo parses a +CLCC line value:
// <id>,<dir>,<stat>,<mode>,<mpty>[,<number>,<type>[,<alpha>]].
func parseCallInfo(s string) (CallInfo, error) {
	v, err := ints(s, 5)
	if err != nil {
		return CallInfo{}, err
	}
	ci := CallInfo{
		ID:         v[0],
		Dir:        CallDir(v[1]),
		State:      CallState(v[2]),
		Type:       CallType(v[3]),
		Multiparty: v[4] == 1,
	}
	f := fields(s)
	if len(f) > 5 {
		ci.Number = f[5]
	}
	if len(f) > 6 {
		ci.AddressType = atoi(f[6], 0)
	}
	if len(f) > 7 {
		ci.Name = f[7]
	}
	return ci, nil
}
