package irc

import (
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// sendQueueDepth bounds the per-client outbound queue. A peer that cannot
// drain this many pending lines is considered dead and gets disconnected.
const sendQueueDepth = 128

// Client is one live connection's session state. Identity fields and the
// inbound buffer are only touched while holding the owning Server's mutex;
// the send queue and writer goroutine are safe to use from any goroutine.
type Client struct {
	ID   string
	conn net.Conn

	nickname      string
	username      string
	authenticated bool
	registered    bool

	inbound []byte

	sendq     chan string
	quit      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an accepted connection in a fresh, unregistered session.
func NewClient(conn net.Conn) *Client {
	return &Client{
		ID:    uuid.New().String(),
		conn:  conn,
		sendq: make(chan string, sendQueueDepth),
		quit:  make(chan struct{}),
	}
}

// Nickname returns the session's current nickname ("" until NICK succeeds).
func (c *Client) Nickname() string { return c.nickname }

// Username returns the session's username ("" until USER succeeds).
func (c *Client) Username() string { return c.username }

// Registered reports whether the session completed PASS+NICK+USER.
func (c *Client) Registered() bool { return c.registered }

// RemoteAddr returns the peer address of the underlying connection.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// prefix builds the :nick!user@localhost event prefix for this session.
func (c *Client) prefix() string {
	return ":" + FormatHostmask(c.nickname, c.username, "localhost")
}

// displayNick is the nickname used in numeric replies, '*' before NICK.
func (c *Client) displayNick() string {
	if c.nickname == "" {
		return "*"
	}
	return c.nickname
}

// send enqueues one line for delivery. It never blocks: if the queue is
// full the peer is treated as dead and its transport is closed, which the
// reader path turns into a disconnect.
func (c *Client) send(line string) {
	if !strings.HasSuffix(line, "\r\n") {
		line += "\r\n"
	}
	select {
	case <-c.quit:
	case c.sendq <- line:
	default:
		c.conn.Close()
	}
}

// writeLoop drains the send queue onto the socket and owns closing the
// transport. On shutdown it flushes every line still queued before closing,
// so replies enqueued just ahead of a disconnect (a PART echo followed by
// QUIT, say) reach the peer. A write error aborts; the reader goroutine then
// performs the actual disconnect.
func (c *Client) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case line := <-c.sendq:
			if _, err := c.conn.Write([]byte(line)); err != nil {
				return
			}
		case <-c.quit:
			for {
				select {
				case line := <-c.sendq:
					if _, err := c.conn.Write([]byte(line)); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// close signals the writer to flush and release the transport. Safe to call
// from any goroutine, any number of times.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
}

// feed appends freshly read bytes to the inbound accumulator.
func (c *Client) feed(data []byte) {
	c.inbound = append(c.inbound, data...)
}

// nextLine extracts the next complete frame from the inbound accumulator,
// leaving any unterminated remainder buffered for the following read.
func (c *Client) nextLine() (string, bool) {
	line, rest, ok := nextFrame(c.inbound)
	if !ok {
		return "", false
	}
	c.inbound = rest
	return line, true
}
