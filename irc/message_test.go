package irc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		verb   string
		params string
	}{
		{"simple", "NICK alice", "NICK", "alice"},
		{"lowercase verb", "privmsg #chat :hello", "PRIVMSG", "#chat :hello"},
		{"leading whitespace", "  JOIN #chat", "JOIN", "#chat"},
		{"verb only", "QUIT", "QUIT", ""},
		{"trailing spaces kept in params", "TOPIC #chat :a topic here", "TOPIC", "#chat :a topic here"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ParseMessage(tt.line)
			assert.Equal(t, tt.verb, msg.Verb)
			assert.Equal(t, tt.params, msg.Params)
		})
	}
}

func TestCutToken(t *testing.T) {
	token, rest := cutToken("#chat :hello world")
	assert.Equal(t, "#chat", token)
	assert.Equal(t, ":hello world", rest)

	token, rest = cutToken("alone")
	assert.Equal(t, "alone", token)
	assert.Equal(t, "", rest)

	token, rest = cutToken("a   b")
	assert.Equal(t, "a", token)
	assert.Equal(t, "b", rest)

	token, rest = cutToken("")
	assert.Equal(t, "", token)
	assert.Equal(t, "", rest)
}

func TestTrailing(t *testing.T) {
	assert.Equal(t, "hello world", trailing(":hello world"))
	assert.Equal(t, "hello", trailing("hello"))
	assert.Equal(t, "", trailing(""))
	assert.Equal(t, "", trailing(":"))
}

func TestNextFrame(t *testing.T) {
	frame, rest, ok := nextFrame([]byte("NICK alice\r\nUSER bob"))
	assert.True(t, ok)
	assert.Equal(t, "NICK alice", frame)
	assert.Equal(t, "USER bob", string(rest))

	// bare LF is accepted
	frame, rest, ok = nextFrame([]byte("QUIT\nrest"))
	assert.True(t, ok)
	assert.Equal(t, "QUIT", frame)
	assert.Equal(t, "rest", string(rest))

	// incomplete frame stays buffered
	_, _, ok = nextFrame([]byte("NICK ali"))
	assert.False(t, ok)

	_, _, ok = nextFrame(nil)
	assert.False(t, ok)
}

func TestNextFrameReassembly(t *testing.T) {
	// a command arriving one byte at a time must produce exactly one frame
	c := NewClient(nil)
	input := "NICK alice\r\n"
	var frames []string
	for i := 0; i < len(input); i++ {
		c.feed([]byte{input[i]})
		for {
			line, ok := c.nextLine()
			if !ok {
				break
			}
			frames = append(frames, line)
		}
	}
	assert.Equal(t, []string{"NICK alice"}, frames)

	// several commands in one chunk drain as separate frames
	c.feed([]byte("JOIN #a\r\nJOIN #b\r\nPRIVMSG #a :hi\r\n"))
	frames = frames[:0]
	for {
		line, ok := c.nextLine()
		if !ok {
			break
		}
		frames = append(frames, line)
	}
	assert.Equal(t, []string{"JOIN #a", "JOIN #b", "PRIVMSG #a :hi"}, frames)
}

func TestFormatHostmask(t *testing.T) {
	assert.Equal(t, "alice!auser@localhost", FormatHostmask("alice", "auser", "localhost"))
}

func TestValidNickname(t *testing.T) {
	valid := []string{"alice", "Bob", "a1", "x-y", "[ops]", "nick_", "a{b}", "c|d", "e^f", "g\\h"}
	for _, nick := range valid {
		assert.True(t, validNickname(nick), nick)
	}

	invalid := []string{"", "1abc", "-dash", "has space", "excl!aim", "at@sign", "#chan", ":colon"}
	for _, nick := range invalid {
		assert.False(t, validNickname(nick), nick)
	}
}

func TestParseMessageLongParams(t *testing.T) {
	text := strings.Repeat("x", 400)
	msg := ParseMessage("PRIVMSG #chat :" + text)
	assert.Equal(t, "PRIVMSG", msg.Verb)
	assert.Equal(t, "#chat :"+text, msg.Params)
}
