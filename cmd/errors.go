package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dltrace/historydb"
	"dltrace/trace"
)

// explainErrors wraps the RunE of c and all its subcommands with explain.
func explainErrors(c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return explain(run(cmd, args))
		}
	}
	for _, sub := range c.Commands() {
		explainErrors(sub)
	}
}

// explain prefixes trace and history failures with what the user can do
// about them. The cause stays reachable through errors.Is and errors.As.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case trace.IsUnreadable(err):
		return fmt.Errorf("cannot read trace: %w", err)
	case historydb.IsRecordNotFound(err):
		return fmt.Errorf("no recorded run matches (see 'dltrace history list'): %w", err)
	case errors.Is(err, historydb.ErrAmbiguousRunID):
		return fmt.Errorf("run id prefix matches several runs, give more characters: %w", err)
	case historydb.IsValidationError(err):
		return fmt.Errorf("invalid run id: %w", err)
	case historydb.IsDatabaseError(err):
		return fmt.Errorf("history database unusable (History_enabled = false skips it): %w", err)
	}
	return err
}
