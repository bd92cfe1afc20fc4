package irc

import (
	"fmt"
	"strings"
)

// Channel is one named group chat. Member order is join order. All fields
// are guarded by the owning Server's mutex; a Channel never outlives its
// last member.
type Channel struct {
	name  string
	topic string

	key             string
	inviteOnly      bool
	topicRestricted bool
	userLimit       int

	members   []*Client
	operators []*Client
	invited   []*Client
}

// NewChannel creates an empty channel. The caller is expected to add the
// founding member and grant it operator status immediately.
func NewChannel(name string) *Channel {
	return &Channel{name: name}
}

// Name returns the channel's unique name, including the leading '#'.
func (ch *Channel) Name() string { return ch.name }

// Topic returns the current topic ("" when unset).
func (ch *Channel) Topic() string { return ch.topic }

// SetTopic replaces the channel topic.
func (ch *Channel) SetTopic(topic string) { ch.topic = topic }

// Key returns the channel key ("" when no key gate is active).
func (ch *Channel) Key() string { return ch.key }

// SetKey sets or clears the channel key.
func (ch *Channel) SetKey(key string) { ch.key = key }

// InviteOnly reports whether mode +i is active.
func (ch *Channel) InviteOnly() bool { return ch.inviteOnly }

// SetInviteOnly toggles mode +i.
func (ch *Channel) SetInviteOnly(v bool) { ch.inviteOnly = v }

// TopicRestricted reports whether mode +t is active.
func (ch *Channel) TopicRestricted() bool { return ch.topicRestricted }

// SetTopicRestricted toggles mode +t.
func (ch *Channel) SetTopicRestricted(v bool) { ch.topicRestricted = v }

// UserLimit returns the member cap (0 = unlimited).
func (ch *Channel) UserLimit() int { return ch.userLimit }

// SetUserLimit sets the member cap; 0 clears it.
func (ch *Channel) SetUserLimit(n int) { ch.userLimit = n }

// AddMember appends a client to the member list. Idempotent.
func (ch *Channel) AddMember(c *Client) {
	if ch.IsMember(c) {
		return
	}
	ch.members = append(ch.members, c)
}

// RemoveMember drops a client from the member, operator and invited lists.
func (ch *Channel) RemoveMember(c *Client) {
	ch.members = removeClient(ch.members, c)
	ch.RemoveOperator(c)
	ch.RemoveInvited(c)
}

// IsMember reports whether the client is currently in the channel.
func (ch *Channel) IsMember(c *Client) bool {
	return containsClient(ch.members, c)
}

// Members returns the member list in join order.
func (ch *Channel) Members() []*Client { return ch.members }

// MemberCount returns the number of current members.
func (ch *Channel) MemberCount() int { return len(ch.members) }

// Empty reports whether nobody is left in the channel.
func (ch *Channel) Empty() bool { return len(ch.members) == 0 }

// AddOperator grants channel operator status. Idempotent.
func (ch *Channel) AddOperator(c *Client) {
	if ch.IsOperator(c) {
		return
	}
	ch.operators = append(ch.operators, c)
}

// RemoveOperator revokes channel operator status.
func (ch *Channel) RemoveOperator(c *Client) {
	ch.operators = removeClient(ch.operators, c)
}

// IsOperator reports whether the client holds operator status here.
func (ch *Channel) IsOperator(c *Client) bool {
	return containsClient(ch.operators, c)
}

// AddInvited pre-clears a client to pass the +i gate. Idempotent.
func (ch *Channel) AddInvited(c *Client) {
	if ch.IsInvited(c) {
		return
	}
	ch.invited = append(ch.invited, c)
}

// RemoveInvited drops a pending invitation, if any.
func (ch *Channel) RemoveInvited(c *Client) {
	ch.invited = removeClient(ch.invited, c)
}

// IsInvited reports whether the client has a pending invitation.
func (ch *Channel) IsInvited(c *Client) bool {
	return containsClient(ch.invited, c)
}

// Broadcast queues a line for every member except the given one.
func (ch *Channel) Broadcast(line string, except *Client) {
	for _, m := range ch.members {
		if m == except {
			continue
		}
		m.send(line)
	}
}

// BroadcastAll queues a line for every member, sender included.
func (ch *Channel) BroadcastAll(line string) {
	ch.Broadcast(line, nil)
}

// NamesList renders the member nicknames in join order, operators
// prefixed with '@'.
func (ch *Channel) NamesList() string {
	var b strings.Builder
	for i, m := range ch.members {
		if i > 0 {
			b.WriteByte(' ')
		}
		if ch.IsOperator(m) {
			b.WriteByte('@')
		}
		b.WriteString(m.nickname)
	}
	return b.String()
}

// ModeString reports the active mode flags and their parameters, e.g.
// "+itk secret" or "+l 10". Flags without parameters come first.
func (ch *Channel) ModeString() string {
	flags := "+"
	params := ""
	if ch.inviteOnly {
		flags += "i"
	}
	if ch.topicRestricted {
		flags += "t"
	}
	if ch.key != "" {
		flags += "k"
		params += " " + ch.key
	}
	if ch.userLimit > 0 {
		flags += "l"
		params += fmt.Sprintf(" %d", ch.userLimit)
	}
	return flags + params
}

func containsClient(list []*Client, c *Client) bool {
	for _, e := range list {
		if e == c {
			return true
		}
	}
	return false
}

func removeClient(list []*Client, c *Client) []*Client {
	for i, e := range list {
		if e == c {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
