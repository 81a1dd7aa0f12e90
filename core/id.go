package core

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/appforge-dev/appforge/schema"
)

func newSessionID() schema.SessionID {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "session-unknown"
	}
	return schema.SessionID(hex.EncodeToString(buf[:]))
}

func newMessageID() schema.MessageID {
	return schema.MessageID(uuid.NewString())
}
