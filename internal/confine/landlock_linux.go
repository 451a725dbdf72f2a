//go:build linux

package confine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// landlockAccessFS is the full read+write+exec access-rights mask this
// ruleset declares handling for; a worker's PathGrant then narrows what
// each specific path is actually granted.
const landlockAccessFS = unix.LANDLOCK_ACCESS_FS_READ_FILE |
	unix.LANDLOCK_ACCESS_FS_READ_DIR |
	unix.LANDLOCK_ACCESS_FS_WRITE_FILE |
	unix.LANDLOCK_ACCESS_FS_EXECUTE

// applyLandlock restricts filesystem access to exactly the declared
// paths. An empty grant list still self-restricts to nothing, so a
// worker with no legitimate filesystem needs (identifier, filter) ends
// up unable to open anything at all.
func applyLandlock(grants []PathGrant) error {
	attr := unix.LandlockRulesetAttr{
		AccessFs: uint64(landlockAccessFS),
	}
	rulesetFD, err := unix.LandlockCreateRuleset(&attr, 0)
	if err != nil {
		return fmt.Errorf("landlock_create_ruleset: %w", err)
	}
	defer unix.Close(rulesetFD)

	for _, g := range grants {
		fd, err := unix.Open(g.Path, unix.O_PATH|unix.O_CLOEXEC, 0)
		if err != nil {
			return fmt.Errorf("open %s for landlock rule: %w", g.Path, err)
		}

		var access uint64
		if g.Read {
			access |= unix.LANDLOCK_ACCESS_FS_READ_FILE | unix.LANDLOCK_ACCESS_FS_READ_DIR
		}
		if g.Write {
			access |= unix.LANDLOCK_ACCESS_FS_WRITE_FILE
		}
		if g.Exec {
			access |= unix.LANDLOCK_ACCESS_FS_EXECUTE
		}

		pathBeneath := unix.LandlockPathBeneathAttr{
			AllowedAccess: access,
			ParentFd:      int32(fd),
		}
		err = unix.LandlockAddRule(rulesetFD, unix.LANDLOCK_RULE_PATH_BENEATH, &pathBeneath, 0)
		closeErr := unix.Close(fd)
		if err != nil {
			return fmt.Errorf("landlock_add_rule %s: %w", g.Path, err)
		}
		if closeErr != nil {
			return fmt.Errorf("close %s after landlock rule: %w", g.Path, closeErr)
		}
	}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl(PR_SET_NO_NEW_PRIVS): %w", err)
	}
	if err := unix.LandlockRestrictSelf(rulesetFD, 0); err != nil {
		return fmt.Errorf("landlock_restrict_self: %w", err)
	}
	return nil
}
