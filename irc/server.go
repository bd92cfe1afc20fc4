package irc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/presbrey/ircd/irc/config"
)

// readChunkSize bounds a single read from a client socket, matching the
// protocol's 512-byte line convention.
const readChunkSize = 512

// handlerFunc is one command handler. Handlers run with the server mutex
// held, so they may treat all Registry and Channel mutation as atomic with
// respect to other clients' commands.
type handlerFunc func(c *Client, params string)

// Server owns the listening socket, the session registry and the channel
// registry. A single mutex serializes all command handling; connection
// readers and writers run in their own goroutines but funnel every state
// change through it.
type Server struct {
	config    *config.Config
	log       *zerolog.Logger
	startTime time.Time

	mu       sync.Mutex
	clients  map[string]*Client
	channels map[string]*Channel

	handlers map[string]handlerFunc

	listener    net.Listener
	metrics     *Metrics
	metricsHTTP *http.Server
	portal      *WebPortal

	quit     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a server for the given configuration. Start must be
// called before it accepts connections.
func NewServer(cfg *config.Config, logger *zerolog.Logger) *Server {
	s := &Server{
		config:    cfg,
		log:       logger,
		startTime: time.Now(),
		clients:   make(map[string]*Client),
		channels:  make(map[string]*Channel),
		metrics:   NewMetrics(),
		quit:      make(chan struct{}),
	}
	s.handlers = map[string]handlerFunc{
		"JOIN":    s.handleJoin,
		"PART":    s.handlePart,
		"PRIVMSG": s.handlePrivmsg,
		"KICK":    s.handleKick,
		"INVITE":  s.handleInvite,
		"TOPIC":   s.handleTopic,
		"MODE":    s.handleMode,
	}
	if cfg.WebPortal.Enabled {
		s.portal = NewWebPortal(s)
	}
	if cfg.Metrics.Enabled {
		s.metricsHTTP = s.newMetricsServer()
	}
	return s
}

// Start binds the listening socket and launches the accept loop plus any
// enabled auxiliary listeners.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.GetListenAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.GetListenAddress(), err)
	}
	s.listener = listener

	s.log.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	if s.portal != nil {
		go s.portal.Start()
	}
	if s.metricsHTTP != nil {
		go s.startMetricsServer()
	}

	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, useful when port 0 was asked for.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down: closes every client transport, discards all
// channels, and closes the listening socket. Safe to call multiple times.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}

		s.mu.Lock()
		for _, c := range s.clients {
			c.close()
		}
		s.clients = make(map[string]*Client)
		s.channels = make(map[string]*Channel)
		s.mu.Unlock()

		if s.portal != nil {
			s.portal.Stop()
		}
		if s.metricsHTTP != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.metricsHTTP.Shutdown(ctx); err != nil {
				s.log.Error().Err(err).Msg("metrics server shutdown")
			}
			cancel()
		}
		s.log.Info().Msg("server stopped")
	})
	return nil
}

// acceptLoop accepts connections until the listener closes on shutdown.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.log.Warn().Err(err).Msg("accept failed")
				continue
			}
		}

		client := NewClient(conn)

		s.mu.Lock()
		select {
		case <-s.quit:
			// lost the race with Stop; the registry was already swept
			s.mu.Unlock()
			conn.Close()
			return
		default:
		}
		s.clients[client.ID] = client
		total := len(s.clients)
		s.mu.Unlock()

		s.metrics.ClientsGauge.Inc()
		s.log.Info().
			Str("addr", conn.RemoteAddr().String()).
			Int("clients", total).
			Msg("new connection")

		go client.writeLoop()
		go s.readLoop(client)
	}
}

// readLoop performs bounded reads on the client socket, feeding bytes into
// the session buffer for framing. EOF and read errors disconnect the
// session; a session torn down by its own command (QUIT) ends the loop.
func (s *Server) readLoop(c *Client) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if !s.ingest(c, buf[:n]) {
				return
			}
		}
		if err != nil {
			s.disconnect(c, "Connection closed")
			return
		}
	}
}

// ingest appends bytes to the session buffer and dispatches every complete
// line in arrival order. It returns false once the session no longer
// exists, so the caller stops draining immediately.
func (s *Server) ingest(c *Client, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return false
	}
	c.feed(data)

	for {
		line, ok := c.nextLine()
		if !ok {
			return true
		}
		if line == "" {
			continue
		}
		s.dispatch(c, line)
		if _, ok := s.clients[c.ID]; !ok {
			return false
		}
	}
}

// dispatch routes one framed command. PASS/NICK/USER/QUIT are always
// allowed; everything else requires a registered session. Unknown verbs are
// reported only after registration.
func (s *Server) dispatch(c *Client, line string) {
	msg := ParseMessage(line)
	if msg.Verb == "" {
		return
	}

	s.log.Debug().Str("verb", msg.Verb).Str("nick", c.displayNick()).Msg("command")

	switch msg.Verb {
	case "PASS":
		s.metrics.countCommand(msg.Verb)
		s.handlePass(c, msg.Params)
		return
	case "NICK":
		s.metrics.countCommand(msg.Verb)
		s.handleNick(c, msg.Params)
		return
	case "USER":
		s.metrics.countCommand(msg.Verb)
		s.handleUser(c, msg.Params)
		return
	case "QUIT":
		s.metrics.countCommand(msg.Verb)
		s.handleQuit(c, msg.Params)
		return
	}

	handler, known := s.handlers[msg.Verb]
	if !c.registered {
		if known {
			s.numeric(c, ERR_NOTREGISTERED, ":You have not registered")
		}
		return
	}
	if !known {
		s.metrics.countCommand("unknown")
		s.numeric(c, ERR_UNKNOWNCOMMAND, msg.Verb+" :Unknown command")
		return
	}
	s.metrics.countCommand(msg.Verb)
	handler(c, msg.Params)
}

// disconnect removes a session from every channel (with a QUIT notice to
// its peers), releases the transport and deletes it from the registry.
func (s *Server) disconnect(c *Client, notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked(c, notice)
}

// disconnectLocked is disconnect with the server mutex already held. An
// empty notice suppresses the QUIT broadcast (used by the QUIT handler,
// which has already notified peers with the client's own reason).
func (s *Server) disconnectLocked(c *Client, notice string) {
	if _, ok := s.clients[c.ID]; !ok {
		return
	}

	for name, ch := range s.channels {
		if notice != "" && ch.IsMember(c) {
			ch.Broadcast(c.prefix()+" QUIT :"+notice, c)
		}
		ch.RemoveMember(c)
		if ch.Empty() {
			delete(s.channels, name)
			s.metrics.ChannelsGauge.Dec()
			s.log.Info().Str("channel", name).Msg("channel deleted")
		}
	}

	delete(s.clients, c.ID)
	c.close()

	s.metrics.ClientsGauge.Dec()
	s.log.Info().
		Str("nick", c.displayNick()).
		Int("clients", len(s.clients)).
		Msg("client disconnected")
}

// findClientByNickname resolves a nickname to a live session, nil if no
// client holds it. Comparison is case-sensitive.
func (s *Server) findClientByNickname(nick string) *Client {
	for _, c := range s.clients {
		if c.nickname == nick {
			return c
		}
	}
	return nil
}

// numeric queues a reply of the form :<server> <code> <nick|*> <text>.
func (s *Server) numeric(c *Client, code int, text string) {
	c.send(fmt.Sprintf(":%s %03d %s %s", s.config.Server.Name, code, c.displayNick(), text))
}

// checkPassword compares a PASS argument against the configured secret,
// preferring the bcrypt hash when one is configured.
func (s *Server) checkPassword(password string) bool {
	if hash := s.config.Server.PasswordHash; hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return password == s.config.Server.Password
}

// Stats is a point-in-time summary of the server for the web portal.
type Stats struct {
	Name     string        `json:"name"`
	Network  string        `json:"network"`
	Clients  int           `json:"clients"`
	Channels int           `json:"channels"`
	Uptime   time.Duration `json:"uptime"`
}

// GetStats snapshots server-level counters.
func (s *Server) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Name:     s.config.Server.Name,
		Network:  s.config.Server.Network,
		Clients:  len(s.clients),
		Channels: len(s.channels),
		Uptime:   time.Since(s.startTime),
	}
}

// GetUserList snapshots the nicknames of all registered clients.
func (s *Server) GetUserList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.clients))
	for _, c := range s.clients {
		if c.registered {
			users = append(users, c.nickname)
		}
	}
	return users
}

// ChannelInfo is one channel's public summary for the web portal.
type ChannelInfo struct {
	Name    string `json:"name"`
	Topic   string `json:"topic"`
	Members int    `json:"members"`
	Modes   string `json:"modes"`
}

// GetChannelList snapshots every active channel.
func (s *Server) GetChannelList() []ChannelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	channels := make([]ChannelInfo, 0, len(s.channels))
	for _, ch := range s.channels {
		channels = append(channels, ChannelInfo{
			Name:    ch.Name(),
			Topic:   ch.Topic(),
			Members: ch.MemberCount(),
			Modes:   ch.ModeString(),
		})
	}
	return channels
}
