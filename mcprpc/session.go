// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import "sync"

// sessionState is the handshake state of one connection.
type sessionState int

const (
	stateUninitialized sessionState = iota
	stateInitialized
)

// Supported protocol revisions, newest first. The first entry is offered
// when a client requests a revision the server does not know.
var supportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

// session holds per-connection protocol state. The stdio transport
// creates one session per connection; the HTTP transport creates a
// pre-initialized session per request, since no state persists between
// HTTP requests. Initialization is terminal: a session never reverts to
// the uninitialized state.
type session struct {
	mu              sync.Mutex
	state           sessionState
	protocolVersion string
	logLevel        LogLevel

	transport string            // TransportStdio or TransportHTTP
	metadata  map[string]string // transport-level metadata for hooks

	// notify delivers a server-to-client notification envelope, or is
	// nil on transports with no notification channel.
	notify func(method string, params any)
}

// newSession creates an uninitialized session for a persistent connection.
func newSession(transport string, notify func(method string, params any)) *session {
	return &session{logLevel: LogInfo, transport: transport, notify: notify}
}

// newStatelessSession creates a session that behaves as already
// initialized, for the stateless HTTP transport.
func newStatelessSession(metadata map[string]string, notify func(method string, params any)) *session {
	s := newSession(TransportHTTP, notify)
	s.state = stateInitialized
	s.protocolVersion = supportedProtocolVersions[0]
	s.metadata = metadata
	return s
}

// initialize transitions the session to initialized with the negotiated
// protocol version. It reports whether the session was already
// initialized, in which case the transition is a no-op and the
// previously negotiated version is kept.
func (s *session) initialize(version string) (alreadyInitialized bool, negotiated string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateInitialized {
		return true, s.protocolVersion
	}
	s.state = stateInitialized
	s.protocolVersion = version
	return false, version
}

// initialized reports whether the handshake has completed.
func (s *session) initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateInitialized
}

// setLogLevel updates the client-directed log threshold.
func (s *session) setLogLevel(level LogLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLevel = level
}

// clientLog emits a notifications/message envelope if the level passes
// the session threshold and the transport has a notification channel.
func (s *session) clientLog(level LogLevel, logger string, data any) {
	s.mu.Lock()
	threshold := s.logLevel
	notify := s.notify
	s.mu.Unlock()

	if notify == nil || logLevelPriority(level) < logLevelPriority(threshold) {
		return
	}
	notify(methodLogMessage, logMessageParams{Level: level, Logger: logger, Data: data})
}

// negotiateProtocolVersion checks a client-requested revision against
// the supported set.
func negotiateProtocolVersion(requested string) (string, bool) {
	for _, v := range supportedProtocolVersions {
		if v == requested {
			return v, true
		}
	}
	return "", false
}
