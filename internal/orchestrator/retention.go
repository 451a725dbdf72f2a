// retention.go implements spec.md §6 "Retention rule" and the
// supplemented intermediate-vs-final distinction from
// original_source/usbsas-server/src/outfiles.rs and tmpfiles.rs (see
// SPEC_FULL.md point 4): on session teardown, an empty image or
// empty-equivalent TAR is discarded. For a successful or partially
// failed transfer anything else is kept: moved to the configured output
// directory, or left in the session directory when none is configured.
// An aborted transfer's files are always discarded.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cea-sec/usbsas-go/internal/archive"
)

// Retain reports whether the file at path should survive teardown, per
// spec.md §6: an image is discarded iff its length is zero; a TAR is
// discarded iff its length equals archive.EmptyArchiveSize (1536 bytes:
// one data/ directory entry plus the two-block zero terminator). A
// missing file is never retained.
func Retain(path string, isTar bool) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("orchestrator: stat %s: %w", path, err)
	}
	if isTar {
		return fi.Size() != archive.EmptyArchiveSize, nil
	}
	return fi.Size() != 0, nil
}

// Finalize applies the retention rule to a session's intermediate
// files. When keep is true and a file is worth retaining, it is moved
// into outDir under the session ID; otherwise it is deleted. keep is
// false for Aborted transfers whose in-flight outputs are tainted per
// spec.md §4.5 "Partial-failure policy" — those are always discarded,
// regardless of size, since their content cannot be trusted.
func Finalize(sess *Session, outDir string, keep bool) ([]string, error) {
	var kept []string
	for _, f := range []struct {
		path  string
		isTar bool
	}{
		{sess.TarPath, true},
		{sess.ImgPath, false},
	} {
		if _, err := os.Stat(f.path); err != nil {
			continue
		}
		if !keep {
			os.Remove(f.path)
			continue
		}
		retain, err := Retain(f.path, f.isTar)
		if err != nil {
			return kept, err
		}
		if !retain {
			os.Remove(f.path)
			continue
		}
		if outDir == "" {
			kept = append(kept, f.path)
			continue
		}
		dst := filepath.Join(outDir, fmt.Sprintf("%s-%s", sess.ID, filepath.Base(f.path)))
		if err := os.MkdirAll(outDir, 0o700); err != nil {
			return kept, fmt.Errorf("orchestrator: create output dir: %w", err)
		}
		if err := os.Rename(f.path, dst); err != nil {
			return kept, fmt.Errorf("orchestrator: move %s to %s: %w", f.path, dst, err)
		}
		kept = append(kept, dst)
	}
	return kept, nil
}
