/*
Package irc implements a password-gated multi-user chat relay server
speaking the classic IRC client protocol.

# Features

## Connection and Authentication

- Full registration sequence (PASS, NICK, USER) with a mandatory connection password
- Plaintext or bcrypt-hashed password verification
- Robust line framing: commands split across TCP reads or batched into one read are handled identically
- Graceful disconnect via QUIT or connection loss, with channel-wide notice

## Channel Operations

- Channel creation and membership (JOIN, PART), with automatic deletion of empty channels
- Channel modes:
  - i (invite-only)
  - t (topic restricted to operators)
  - k (channel key/password)
  - o (channel operator)
  - l (user limit)
- Topic management with the TOPIC command
- Channel invitation with the INVITE command
- User removal with the KICK command
- Message relay (PRIVMSG) to channels and directly between users

## Operational Surface

- Structured logging with zerolog
- Prometheus metrics (clients, channels, commands, messages) on a dedicated listener
- Read-only JSON web portal with live stats, user and channel lists
- Configuration from TOML/YAML/JSON files with environment overrides

# Architecture

One goroutine per connection reads from the socket; all command handling is
serialized under a single server mutex. Outbound delivery goes through a
buffered per-client send queue drained by a dedicated writer goroutine, so a
broadcast never blocks on a slow peer.
*/
package irc
