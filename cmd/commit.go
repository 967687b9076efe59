package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilemart/tileadmin/internal/ingest"
)

func newCommitCmd(env *environment) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Save all drafts to their collections",
		Long: `Sends every draft to the backend: image tiles, then PDF tiles, then
existing designs grouped by target collection. If any call fails the drafts
are kept so the commit can be retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				plan, err := ingest.NewPlan(env.workspace.Store.Drafts())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%d image tiles, %d PDF tiles\n", len(plan.Images), len(plan.PDF))
				for _, g := range plan.Existing {
					fmt.Fprintf(w, "%d existing designs into %s\n", len(g.Tiles), g.CollectionID)
				}
				fmt.Fprintf(w, "%d requests\n", plan.Calls())
				return nil
			}

			committer := ingest.NewCommitter(env.client, env.workspace.Store, env.sellers(), consoleNotifier{w: cmd.ErrOrStderr()})
			if _, err := committer.Commit(cmd.Context()); err != nil {
				return err
			}
			return env.save()
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and show the requests without sending them")

	return cmd
}
