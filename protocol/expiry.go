package protocol

import "time"

// Position updates go stale quickly; task lifecycle messages stay useful longer.
var defaultTTLs = map[string]time.Duration{
	TypeRobotMoved:    30 * time.Second,
	TypePodsExhausted: 2 * time.Minute,

	TypeTaskRequest:  5 * time.Minute,
	TypeTaskQueued:   10 * time.Minute,
	TypeTaskRejected: 10 * time.Minute,
	TypeTaskAssigned: 10 * time.Minute,

	TypeTaskCompleted: 60 * time.Minute,
}

// FallbackTTL applies to types without an entry above.
const FallbackTTL = 10 * time.Minute

func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// IsExpired reports whether env is past its expiry. A zero expiry never expires.
func IsExpired(env *Envelope) bool {
	return expired(env.ExpiresAt)
}

func IsExpiredHeader(hdr *RawHeader) bool {
	return expired(hdr.ExpiresAt)
}

func expired(at time.Time) bool {
	return !at.IsZero() && time.Now().UTC().After(at)
}
