package irc

import "strings"

// Channel command handlers: JOIN, PART, PRIVMSG, KICK, INVITE, TOPIC.
// All run with the server mutex held. Every rejection path returns before
// any state mutation, so a failed guard never leaves partial changes.

// handleJoin adds the client to a channel, creating it (with the joiner as
// founding operator) on first use. Existing channels gate on invite-only,
// key and user limit, in that order.
func (s *Server) handleJoin(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "JOIN :Not enough parameters")
		return
	}

	channelName, key := cutToken(params)
	key, _ = cutToken(key)

	if !strings.HasPrefix(channelName, "#") {
		s.numeric(c, ERR_BADCHANMASK, channelName+" :Bad Channel Mask")
		return
	}

	ch, exists := s.channels[channelName]
	if exists {
		if ch.IsMember(c) {
			return
		}
		if ch.InviteOnly() && !ch.IsInvited(c) {
			s.numeric(c, ERR_INVITEONLYCHAN, channelName+" :Cannot join channel (+i)")
			return
		}
		if ch.Key() != "" && key != ch.Key() {
			s.numeric(c, ERR_BADCHANNELKEY, channelName+" :Cannot join channel (+k)")
			return
		}
		if ch.UserLimit() > 0 && ch.MemberCount() >= ch.UserLimit() {
			s.numeric(c, ERR_CHANNELISFULL, channelName+" :Cannot join channel (+l)")
			return
		}
	} else {
		ch = NewChannel(channelName)
		s.channels[channelName] = ch
		ch.AddOperator(c)
		s.metrics.ChannelsGauge.Inc()
		s.log.Info().Str("channel", channelName).Msg("channel created")
	}

	ch.AddMember(c)
	ch.RemoveInvited(c)

	ch.BroadcastAll(c.prefix() + " JOIN " + channelName)

	if ch.Topic() != "" {
		s.numeric(c, RPL_TOPIC, channelName+" :"+ch.Topic())
	}
	s.numeric(c, RPL_NAMREPLY, "= "+channelName+" :"+ch.NamesList())
	s.numeric(c, RPL_ENDOFNAMES, channelName+" :End of /NAMES list")

	s.log.Info().Str("nick", c.nickname).Str("channel", channelName).Msg("join")
}

// handlePart removes the client from a channel, announcing the departure to
// every member first. The channel is deleted the moment it empties.
func (s *Server) handlePart(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "PART :Not enough parameters")
		return
	}

	channelName, message := cutToken(params)
	message = trailing(message)

	ch, exists := s.channels[channelName]
	if !exists {
		s.numeric(c, ERR_NOSUCHCHANNEL, channelName+" :No such channel")
		return
	}
	if !ch.IsMember(c) {
		s.numeric(c, ERR_NOTONCHANNEL, channelName+" :You're not on that channel")
		return
	}

	partMsg := c.prefix() + " PART " + channelName
	if message != "" {
		partMsg += " :" + message
	}
	ch.BroadcastAll(partMsg)

	ch.RemoveMember(c)
	s.deleteIfEmpty(ch)

	s.log.Info().Str("nick", c.nickname).Str("channel", channelName).Msg("part")
}

// handlePrivmsg relays a message to a channel (fan-out to every member but
// the sender) or directly to a nickname.
func (s *Server) handlePrivmsg(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NORECIPIENT, ":No recipient given (PRIVMSG)")
		return
	}

	target, text := cutToken(params)
	text = trailing(text)

	if text == "" {
		s.numeric(c, ERR_NOTEXTTOSEND, ":No text to send")
		return
	}

	fullMsg := c.prefix() + " PRIVMSG " + target + " :" + text

	if strings.HasPrefix(target, "#") {
		ch, exists := s.channels[target]
		if !exists {
			s.numeric(c, ERR_NOSUCHCHANNEL, target+" :No such channel")
			return
		}
		if !ch.IsMember(c) {
			s.numeric(c, ERR_NOTONCHANNEL, target+" :You're not on that channel")
			return
		}
		ch.Broadcast(fullMsg, c)
	} else {
		targetClient := s.findClientByNickname(target)
		if targetClient == nil {
			s.numeric(c, ERR_NOSUCHNICK, target+" :No such nick/channel")
			return
		}
		targetClient.send(fullMsg)
	}

	s.metrics.MessagesTotal.Inc()
}

// handleKick ejects a member from a channel. Requires the kicker to be a
// member and an operator; the default reason is the kicker's nickname.
func (s *Server) handleKick(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "KICK :Not enough parameters")
		return
	}

	channelName, rest := cutToken(params)
	if rest == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "KICK :Not enough parameters")
		return
	}
	targetNick, trail := cutToken(rest)
	// only an absent reason defaults to the kicker's nick; an explicit
	// empty trailing (":" with nothing after) is kept as-is
	reason := c.nickname
	if trail != "" {
		reason = trailing(trail)
	}

	ch, exists := s.channels[channelName]
	if !exists {
		s.numeric(c, ERR_NOSUCHCHANNEL, channelName+" :No such channel")
		return
	}
	if !ch.IsMember(c) {
		s.numeric(c, ERR_NOTONCHANNEL, channelName+" :You're not on that channel")
		return
	}
	if !ch.IsOperator(c) {
		s.numeric(c, ERR_CHANOPRIVSNEEDED, channelName+" :You're not channel operator")
		return
	}

	target := s.findClientByNickname(targetNick)
	if target == nil {
		s.numeric(c, ERR_NOSUCHNICK, targetNick+" :No such nick/channel")
		return
	}
	if !ch.IsMember(target) {
		s.numeric(c, ERR_USERNOTINCHANNEL, targetNick+" "+channelName+" :They aren't on that channel")
		return
	}

	ch.BroadcastAll(c.prefix() + " KICK " + channelName + " " + targetNick + " :" + reason)

	ch.RemoveMember(target)
	s.deleteIfEmpty(ch)

	s.log.Info().
		Str("nick", c.nickname).
		Str("target", targetNick).
		Str("channel", channelName).
		Msg("kick")
}

// handleInvite pre-clears a client to join a channel, typically one in
// invite-only mode. Requires membership and operator status.
func (s *Server) handleInvite(c *Client, params string) {
	nickname, channelName := cutToken(params)
	channelName, _ = cutToken(channelName)

	if nickname == "" || channelName == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "INVITE :Not enough parameters")
		return
	}

	ch, exists := s.channels[channelName]
	if !exists {
		s.numeric(c, ERR_NOSUCHCHANNEL, channelName+" :No such channel")
		return
	}
	if !ch.IsMember(c) {
		s.numeric(c, ERR_NOTONCHANNEL, channelName+" :You're not on that channel")
		return
	}
	if !ch.IsOperator(c) {
		s.numeric(c, ERR_CHANOPRIVSNEEDED, channelName+" :You're not channel operator")
		return
	}

	target := s.findClientByNickname(nickname)
	if target == nil {
		s.numeric(c, ERR_NOSUCHNICK, nickname+" :No such nick/channel")
		return
	}
	if ch.IsMember(target) {
		s.numeric(c, ERR_USERONCHANNEL, nickname+" "+channelName+" :is already on channel")
		return
	}

	ch.AddInvited(target)

	s.numeric(c, RPL_INVITING, nickname+" "+channelName)
	target.send(c.prefix() + " INVITE " + nickname + " " + channelName)

	s.log.Info().
		Str("nick", c.nickname).
		Str("target", nickname).
		Str("channel", channelName).
		Msg("invite")
}

// handleTopic reports or changes a channel topic. Changing it requires
// operator status when the channel is topic-restricted (+t).
func (s *Server) handleTopic(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "TOPIC :Not enough parameters")
		return
	}

	channelName, rest := cutToken(params)
	hasTopic := strings.ContainsAny(params, " \t")
	newTopic := trailing(rest)

	ch, exists := s.channels[channelName]
	if !exists {
		s.numeric(c, ERR_NOSUCHCHANNEL, channelName+" :No such channel")
		return
	}
	if !ch.IsMember(c) {
		s.numeric(c, ERR_NOTONCHANNEL, channelName+" :You're not on that channel")
		return
	}

	if !hasTopic {
		if ch.Topic() == "" {
			s.numeric(c, RPL_NOTOPIC, channelName+" :No topic is set")
		} else {
			s.numeric(c, RPL_TOPIC, channelName+" :"+ch.Topic())
		}
		return
	}

	if ch.TopicRestricted() && !ch.IsOperator(c) {
		s.numeric(c, ERR_CHANOPRIVSNEEDED, channelName+" :You're not channel operator")
		return
	}

	ch.SetTopic(newTopic)
	ch.BroadcastAll(c.prefix() + " TOPIC " + channelName + " :" + newTopic)

	s.log.Info().Str("nick", c.nickname).Str("channel", channelName).Str("topic", newTopic).Msg("topic")
}

// deleteIfEmpty discards a channel the instant its member set empties.
func (s *Server) deleteIfEmpty(ch *Channel) {
	if !ch.Empty() {
		return
	}
	delete(s.channels, ch.Name())
	s.metrics.ChannelsGauge.Dec()
	s.log.Info().Str("channel", ch.Name()).Msg("channel deleted")
}
