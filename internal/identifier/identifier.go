// Package identifier implements the external user-identification
// collaborator of spec.md §4.6: the identifier worker asks something
// outside the pipeline (a badge reader, an LDAP lookup, a PAM session)
// who is running the transfer. That something is out of scope for a
// from-scratch implementation, so this package exposes the trait plus
// two reference implementations exercised by spec.md §8 scenario 1.
package identifier

import (
	"fmt"
	"os"
)

// Identifier resolves the identity of the user running a transfer.
type Identifier interface {
	UserID() (string, error)
}

// Static always returns a fixed user ID. It grounds spec.md §8
// scenario 1, whose expected response is the literal string
// "Tartempion".
type Static struct {
	ID string
}

func NewStatic(id string) Static { return Static{ID: id} }

func (s Static) UserID() (string, error) { return s.ID, nil }

// EnvVar reads the user ID from an environment variable, standing in
// for a real badge/LDAP/PAM lookup in a deployment where the
// orchestrator's parent process already resolved the session's user.
type EnvVar struct {
	Name string
}

func NewEnvVar(name string) EnvVar { return EnvVar{Name: name} }

func (e EnvVar) UserID() (string, error) {
	v, ok := os.LookupEnv(e.Name)
	if !ok || v == "" {
		return "", fmt.Errorf("identifier: environment variable %s not set", e.Name)
	}
	return v, nil
}
