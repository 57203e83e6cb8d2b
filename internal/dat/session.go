package dat

import (
	"fmt"
	"sync"

	"github.com/ernie/otbcore/internal/spr"
)

// sessionMu guards the process-wide "one active client at a time"
// invariant: a single process may hold at most one open DAT+SPR pair,
// matching how the client itself only ever has one active session.
var (
	sessionMu     sync.Mutex
	sessionActive bool
)

// ClientSession pairs an open DAT definition file with its matching SPR
// sprite file, the two halves of a single client asset set. Only one
// ClientSession may be open in a process at a time; OpenSession returns an
// error if a session is already active, and the caller must Close it
// to release the slot.
type ClientSession struct {
	DAT *File
	SPR *spr.File

	closed bool
}

// OpenSession opens datPath and sprPath together as one client session.
// It fails immediately if another session is already open in this
// process.
func OpenSession(datPath, sprPath string) (*ClientSession, error) {
	sessionMu.Lock()
	if sessionActive {
		sessionMu.Unlock()
		return nil, fmt.Errorf("dat: a client session is already open in this process")
	}
	sessionActive = true
	sessionMu.Unlock()

	datFile, err := Read(datPath)
	if err != nil {
		releaseSession()
		return nil, err
	}
	sprFile, err := spr.Read(sprPath)
	if err != nil {
		releaseSession()
		return nil, err
	}

	return &ClientSession{DAT: datFile, SPR: sprFile}, nil
}

// Close releases the process-wide session slot. It is safe to call more
// than once.
func (s *ClientSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	releaseSession()
	return nil
}

func releaseSession() {
	sessionMu.Lock()
	sessionActive = false
	sessionMu.Unlock()
}
