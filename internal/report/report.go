// Package report extracts structured state from the text ufw prints for
// `status numbered`, `status verbose`, `version` and `app list`.
//
// Every extractor takes the whole captured invocation. A non-zero exit
// status fails the call with model.ErrIO carrying stderr; stdout is not
// looked at in that case.
package report

import (
	"fmt"
	"strings"

	"ufw-inspector/internal/model"
)

func checkExit(out model.CommandOutput) error {
	if out.Success() {
		return nil
	}
	msg := strings.TrimSpace(out.Stderr)
	if msg == "" {
		msg = "no output on stderr"
	}
	return fmt.Errorf("%w: ufw exited with status %d: %s", model.ErrIO, out.ExitCode, msg)
}
