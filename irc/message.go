package irc

import (
	"fmt"
	"strings"
)

// Message is one framed client command: an uppercased verb plus the raw,
// left-trimmed parameter string that followed it.
type Message struct {
	Verb   string
	Params string
}

// ParseMessage splits a framed line into its verb and parameter string.
// Leading whitespace is ignored and the verb is case-normalized.
func ParseMessage(line string) Message {
	line = strings.TrimLeft(line, " \t\r")
	verb, params := cutToken(line)
	return Message{
		Verb:   strings.ToUpper(verb),
		Params: params,
	}
}

// cutToken returns the first whitespace-delimited token of s and the
// remainder with its leading whitespace removed.
func cutToken(s string) (token, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i+1:], " \t")
}

// trailing strips the leading ':' marker from a trailing parameter, if any.
func trailing(s string) string {
	return strings.TrimPrefix(s, ":")
}

// nextFrame extracts the first complete line from buf. A frame ends at '\n';
// a trailing '\r' before it is stripped. ok reports whether a full frame was
// present; rest is the unconsumed remainder in either case.
func nextFrame(buf []byte) (frame string, rest []byte, ok bool) {
	i := -1
	for j, b := range buf {
		if b == '\n' {
			i = j
			break
		}
	}
	if i < 0 {
		return "", buf, false
	}
	line := buf[:i]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), buf[i+1:], true
}

// FormatHostmask builds a client prefix of the form nick!user@host.
func FormatHostmask(nick, user, host string) string {
	return fmt.Sprintf("%s!%s@%s", nick, user, host)
}

// validNickname reports whether a candidate nickname matches the accepted
// grammar: first character a letter or one of []\^_{}|, subsequent
// characters additionally allowing digits and '-'.
func validNickname(nick string) bool {
	if nick == "" {
		return false
	}
	for i, r := range nick {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case strings.ContainsRune(`[]\^_{}|`, r):
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
