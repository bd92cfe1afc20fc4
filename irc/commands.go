package irc

// Registration command handlers: PASS, NICK, USER, QUIT. These are the only
// verbs accepted before a session is registered. All handlers run with the
// server mutex held.

// handlePass checks the connection password. There is no attempt limiting;
// a mismatch simply leaves the session unauthenticated.
func (s *Server) handlePass(c *Client, params string) {
	if c.registered {
		s.numeric(c, ERR_ALREADYREGISTRED, ":You may not reregister")
		return
	}
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "PASS :Not enough parameters")
		return
	}

	if s.checkPassword(params) {
		c.authenticated = true
		s.log.Info().Str("addr", c.RemoteAddr()).Msg("password accepted")
	} else {
		s.numeric(c, ERR_PASSWDMISMATCH, ":Password incorrect")
	}
}

// handleNick sets or changes the nickname. A change after registration is
// announced under the old prefix to the client itself and to every channel
// it belongs to.
func (s *Server) handleNick(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NONICKNAMEGIVEN, ":No nickname given")
		return
	}
	if !c.authenticated {
		s.numeric(c, ERR_PASSWDMISMATCH, ":Password incorrect - use PASS first")
		return
	}

	nickname, _ := cutToken(params)

	if !validNickname(nickname) {
		s.numeric(c, ERR_ERRONEUSNICKNAME, nickname+" :Erroneous nickname")
		return
	}

	if existing := s.findClientByNickname(nickname); existing != nil && existing != c {
		s.numeric(c, ERR_NICKNAMEINUSE, nickname+" :Nickname is already in use")
		return
	}

	oldNick := c.nickname
	c.nickname = nickname
	s.log.Info().Str("nick", nickname).Msg("nickname set")

	if c.registered && oldNick != "" {
		nickMsg := ":" + FormatHostmask(oldNick, c.username, "localhost") + " NICK :" + nickname
		c.send(nickMsg)
		for _, ch := range s.channels {
			if ch.IsMember(c) {
				ch.Broadcast(nickMsg, c)
			}
		}
	}

	s.checkRegistration(c)
}

// handleUser sets the username. Only the first whitespace-delimited token is
// used; the realname and mode fields of the full USER syntax are ignored.
func (s *Server) handleUser(c *Client, params string) {
	if c.registered {
		s.numeric(c, ERR_ALREADYREGISTRED, ":You may not reregister")
		return
	}
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "USER :Not enough parameters")
		return
	}
	if !c.authenticated {
		s.numeric(c, ERR_PASSWDMISMATCH, ":Password incorrect - use PASS first")
		return
	}

	c.username, _ = cutToken(params)
	s.log.Info().Str("user", c.username).Msg("username set")

	s.checkRegistration(c)
}

// checkRegistration promotes the session to registered the instant PASS,
// NICK and USER have all completed, sending the welcome reply exactly once.
func (s *Server) checkRegistration(c *Client) {
	if c.registered {
		return
	}
	if c.authenticated && c.nickname != "" && c.username != "" {
		c.registered = true
		s.numeric(c, RPL_WELCOME,
			":Welcome to the "+s.config.Server.Network+" Network, "+
				FormatHostmask(c.nickname, c.username, "localhost"))
		s.log.Info().Str("nick", c.nickname).Msg("client registered")
	}
}

// handleQuit announces the departure to every channel the client belongs to
// and tears the connection down. Accepted at any registration state.
func (s *Server) handleQuit(c *Client, params string) {
	reason := "Quit"
	if params != "" {
		reason = trailing(params)
	}

	quitMsg := c.prefix() + " QUIT :" + reason
	for _, ch := range s.channels {
		if ch.IsMember(c) {
			ch.Broadcast(quitMsg, c)
		}
	}

	s.log.Info().Str("nick", c.displayNick()).Str("reason", reason).Msg("quit")

	// Peers were just notified with the client's own reason; suppress the
	// generic QUIT notice in the teardown path.
	s.disconnectLocked(c, "")
}
