package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Session scopes every file a transfer creates, per spec.md §3
// "Session": a stable identifier generated by the orchestrator, with
// auxiliary files (intermediate archive, intermediate image) scoped to
// it and deleted on reset unless the retention rule says otherwise.
type Session struct {
	ID      uuid.UUID
	Dir     string
	TarPath string
	ImgPath string
}

// NewSession allocates a session directory under os.TempDir(), named
// the way rclone names a sync run's working state: a fixed prefix plus
// a freshly generated UUID, so concurrent sessions never collide.
func NewSession() (*Session, error) {
	id := uuid.New()
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("usbsas-%s", id))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("orchestrator: create session dir: %w", err)
	}
	return &Session{
		ID:      id,
		Dir:     dir,
		TarPath: filepath.Join(dir, "session.tar"),
		ImgPath: filepath.Join(dir, "session.img"),
	}, nil
}

// Destroy removes the entire session directory, intermediate files
// included. Called after retention.go has already decided which final
// output files, if any, to preserve elsewhere.
func (s *Session) Destroy() error {
	return os.RemoveAll(s.Dir)
}
