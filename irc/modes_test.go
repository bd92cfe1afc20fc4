package irc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// joinedPair returns two registered clients sharing a channel where the
// first is the operator.
func joinedPair(t *testing.T, addr, channel string) (*IRCClient, *IRCClient) {
	alice := NewIRCClient(t, addr)
	alice.Register(t, "alice")
	bob := NewIRCClient(t, addr)
	bob.Register(t, "bob")

	require.NoError(t, alice.Send("JOIN "+channel))
	_, err := alice.Expect(t, "366", 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, bob.Send("JOIN "+channel))
	_, err = bob.Expect(t, "366", 2*time.Second)
	require.NoError(t, err)

	return alice, bob
}

func TestModeReport(t *testing.T) {
	server := startTestServer(t)
	alice, _ := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE #chat"))
	line, err := alice.Expect(t, "324", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "324 alice #chat +")

	// the report includes parameterized modes with their values
	assert.NoError(t, alice.Send("MODE #chat +k hunter2"))
	_, err = alice.Expect(t, "MODE #chat +k hunter2", 2*time.Second)
	require.NoError(t, err)
	assert.NoError(t, alice.Send("MODE #chat +l 10"))
	_, err = alice.Expect(t, "MODE #chat +l 10", 2*time.Second)
	require.NoError(t, err)

	assert.NoError(t, alice.Send("MODE #chat"))
	line, err = alice.Expect(t, "324", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "#chat +kl hunter2 10")
}

func TestModeRequiresOperator(t *testing.T) {
	server := startTestServer(t)
	_, bob := joinedPair(t, server.Addr(), "#chat")

	// reporting is open to all members, changing is not
	assert.NoError(t, bob.Send("MODE #chat"))
	_, err := bob.Expect(t, "324", 2*time.Second)
	assert.NoError(t, err)

	assert.NoError(t, bob.Send("MODE #chat +i"))
	line, err := bob.Expect(t, "482", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "#chat :You're not channel operator")
}

func TestModeOperatorGrantAndRevoke(t *testing.T) {
	server := startTestServer(t)
	alice, bob := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE #chat +o bob"))
	line, err := bob.Expect(t, "MODE #chat", 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, ":alice!alice@localhost MODE #chat +o bob", line)

	// bob can now change modes
	assert.NoError(t, bob.Send("MODE #chat +t"))
	_, err = bob.Expect(t, "MODE #chat +t", 2*time.Second)
	assert.NoError(t, err)

	assert.NoError(t, alice.Send("MODE #chat -o bob"))
	_, err = bob.Expect(t, "MODE #chat -o bob", 2*time.Second)
	assert.NoError(t, err)

	assert.NoError(t, bob.Send("MODE #chat -t"))
	line, err = bob.Expect(t, "482", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "You're not channel operator")
}

func TestModeUnknownFlag(t *testing.T) {
	server := startTestServer(t)
	alice, _ := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE #chat +x"))
	line, err := alice.Expect(t, "472", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "x :is unknown mode char to me")
}

func TestModeInvalidLimit(t *testing.T) {
	server := startTestServer(t)
	alice, _ := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE #chat +l abc"))
	line, err := alice.Expect(t, "461", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "MODE +l :Invalid limit")

	assert.NoError(t, alice.Send("MODE #chat +l 0"))
	_, err = alice.Expect(t, "461", 2*time.Second)
	assert.NoError(t, err)

	assert.NoError(t, alice.Send("MODE #chat +l"))
	line, err = alice.Expect(t, "461", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "MODE +l :Not enough parameters")
}

func TestModeBadFlagSkippedOthersApply(t *testing.T) {
	server := startTestServer(t)
	alice, _ := joinedPair(t, server.Addr(), "#chat")

	// the +o for a missing nick fails, but +i still applies and only the
	// effective change is broadcast
	assert.NoError(t, alice.Send("MODE #chat +oi nobody"))
	line, err := alice.Expect(t, "401", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "nobody :No such nick/channel")

	line, err = alice.Expect(t, "MODE #chat", 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, ":alice!alice@localhost MODE #chat +i", line)
}

func TestModeCombined(t *testing.T) {
	server := startTestServer(t)
	alice, bob := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE #chat +ik hunter2"))
	line, err := bob.Expect(t, "MODE #chat", 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, ":alice!alice@localhost MODE #chat +ik hunter2", line)

	assert.NoError(t, alice.Send("MODE #chat -i+l 5"))
	line, err = bob.Expect(t, "MODE #chat -i", 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, ":alice!alice@localhost MODE #chat -i+l 5", line)
}

func TestModeOnUserTargetIgnored(t *testing.T) {
	server := startTestServer(t)
	alice, _ := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE alice +i"))
	alice.ExpectNothing(t, "MODE", 200*time.Millisecond)
}

func TestModeNoSuchChannel(t *testing.T) {
	server := startTestServer(t)
	client := NewIRCClient(t, server.Addr())
	client.Register(t, "alice")

	assert.NoError(t, client.Send("MODE #nochan +i"))
	line, err := client.Expect(t, "403", 2*time.Second)
	assert.NoError(t, err)
	assert.Contains(t, line, "#nochan :No such channel")
}

func TestKeyClearedAllowsJoin(t *testing.T) {
	server := startTestServer(t)
	alice, _ := joinedPair(t, server.Addr(), "#chat")

	assert.NoError(t, alice.Send("MODE #chat +k hunter2"))
	_, err := alice.Expect(t, "MODE #chat +k hunter2", 2*time.Second)
	require.NoError(t, err)
	assert.NoError(t, alice.Send("MODE #chat -k"))
	_, err = alice.Expect(t, "MODE #chat -k", 2*time.Second)
	require.NoError(t, err)

	carol := NewIRCClient(t, server.Addr())
	carol.Register(t, "carol")
	assert.NoError(t, carol.Send("JOIN #chat"))
	_, err = carol.Expect(t, "366", 2*time.Second)
	assert.NoError(t, err)
}
