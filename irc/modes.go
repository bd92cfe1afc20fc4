package irc

import (
	"strconv"
	"strings"
)

// handleMode reports or alters channel modes. Supported flags: i (invite
// only), t (topic restricted), k (key), o (operator), l (user limit).
// Parameterized flags consume arguments left to right; a flag whose
// argument is missing or invalid is skipped and scanning continues, and
// only the flags that actually applied are broadcast.
func (s *Server) handleMode(c *Client, params string) {
	if params == "" {
		s.numeric(c, ERR_NEEDMOREPARAMS, "MODE :Not enough parameters")
		return
	}

	target, rest := cutToken(params)
	if !strings.HasPrefix(target, "#") {
		// user modes are not supported; ignore quietly
		return
	}

	ch, exists := s.channels[target]
	if !exists {
		s.numeric(c, ERR_NOSUCHCHANNEL, target+" :No such channel")
		return
	}
	if !ch.IsMember(c) {
		s.numeric(c, ERR_NOTONCHANNEL, target+" :You're not on that channel")
		return
	}

	modestring, args := cutToken(rest)
	if modestring == "" {
		s.numeric(c, RPL_CHANNELMODEIS, target+" "+ch.ModeString())
		return
	}

	if !ch.IsOperator(c) {
		s.numeric(c, ERR_CHANOPRIVSNEEDED, target+" :You're not channel operator")
		return
	}

	var applied []appliedMode
	adding := true

	for _, flag := range modestring {
		switch flag {
		case '+':
			adding = true
		case '-':
			adding = false
		case 'i':
			ch.SetInviteOnly(adding)
			applied = append(applied, appliedMode{adding, 'i', ""})
		case 't':
			ch.SetTopicRestricted(adding)
			applied = append(applied, appliedMode{adding, 't', ""})
		case 'k':
			if adding {
				var key string
				key, args = cutToken(args)
				if key == "" {
					s.numeric(c, ERR_NEEDMOREPARAMS, "MODE +k :Not enough parameters")
					continue
				}
				ch.SetKey(key)
				applied = append(applied, appliedMode{true, 'k', key})
			} else {
				ch.SetKey("")
				applied = append(applied, appliedMode{false, 'k', ""})
			}
		case 'o':
			var nick string
			nick, args = cutToken(args)
			if nick == "" {
				if adding {
					s.numeric(c, ERR_NEEDMOREPARAMS, "MODE +o :Not enough parameters")
				} else {
					s.numeric(c, ERR_NEEDMOREPARAMS, "MODE -o :Not enough parameters")
				}
				continue
			}
			targetClient := s.findClientByNickname(nick)
			if targetClient == nil {
				s.numeric(c, ERR_NOSUCHNICK, nick+" :No such nick/channel")
				continue
			}
			if !ch.IsMember(targetClient) {
				s.numeric(c, ERR_USERNOTINCHANNEL, nick+" "+target+" :They aren't on that channel")
				continue
			}
			if adding {
				ch.AddOperator(targetClient)
			} else {
				ch.RemoveOperator(targetClient)
			}
			applied = append(applied, appliedMode{adding, 'o', nick})
		case 'l':
			if adding {
				var arg string
				arg, args = cutToken(args)
				if arg == "" {
					s.numeric(c, ERR_NEEDMOREPARAMS, "MODE +l :Not enough parameters")
					continue
				}
				limit, err := strconv.Atoi(arg)
				if err != nil || limit <= 0 {
					s.numeric(c, ERR_NEEDMOREPARAMS, "MODE +l :Invalid limit")
					continue
				}
				ch.SetUserLimit(limit)
				applied = append(applied, appliedMode{true, 'l', arg})
			} else {
				ch.SetUserLimit(0)
				applied = append(applied, appliedMode{false, 'l', ""})
			}
		default:
			s.numeric(c, ERR_UNKNOWNMODE, string(flag)+" :is unknown mode char to me")
		}
	}

	if len(applied) == 0 {
		return
	}

	change := buildModeChange(applied)
	ch.BroadcastAll(c.prefix() + " MODE " + target + " " + change)

	s.log.Info().
		Str("nick", c.nickname).
		Str("channel", target).
		Str("change", change).
		Msg("mode")
}

type appliedMode struct {
	adding bool
	flag   byte
	arg    string
}

// buildModeChange renders the net effective change: flags grouped under
// sign markers in application order, followed by their arguments in
// consumption order.
func buildModeChange(applied []appliedMode) string {
	var flags strings.Builder
	var params []string

	sign := byte(0)
	for _, m := range applied {
		want := byte('-')
		if m.adding {
			want = '+'
		}
		if sign != want {
			flags.WriteByte(want)
			sign = want
		}
		flags.WriteByte(m.flag)
		if m.arg != "" {
			params = append(params, m.arg)
		}
	}

	out := flags.String()
	if len(params) > 0 {
		out += " " + strings.Join(params, " ")
	}
	return out
}
