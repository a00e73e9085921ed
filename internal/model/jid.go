package model

import (
	"strings"
	"unicode"
)

const (
	UserServer       = "s.whatsapp.net"
	LegacyUserServer = "c.us"
	GroupServer      = "g.us"
	BroadcastServer  = "broadcast"

	groupSuffix = "@" + GroupServer
)

var knownServers = map[string]bool{
	UserServer:       true,
	LegacyUserServer: true,
	GroupServer:      true,
	BroadcastServer:  true,
}

// ValidateJID checks the user@server shape of a recipient id.
func ValidateJID(jid string) error {
	if jid == "" {
		return NewValidationError("jid", "recipient id is empty")
	}

	user, server, ok := strings.Cut(jid, "@")
	if !ok || strings.Contains(server, "@") {
		return NewValidationError("jid", "recipient id must have exactly one '@': "+jid)
	}
	if user == "" {
		return NewValidationError("jid", "recipient id has no user part: "+jid)
	}
	if strings.IndexFunc(user, unicode.IsSpace) >= 0 {
		return NewValidationError("jid", "recipient id contains whitespace: "+jid)
	}
	if !knownServers[server] {
		return NewValidationError("jid", "unknown server "+server+" in recipient id")
	}
	return nil
}

func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, groupSuffix)
}
