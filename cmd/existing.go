package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilemart/tileadmin/internal/export"
	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/notify"
	"github.com/tilemart/tileadmin/internal/picker"
)

func newExistingCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "existing",
		Short: "Copy tile designs from your other collections",
	}

	cmd.AddCommand(newExistingCollectionsCmd(env))
	cmd.AddCommand(newExistingListCmd(env))
	cmd.AddCommand(newExistingAddCmd(env))
	cmd.AddCommand(newExistingExportCmd(env))

	return cmd
}

// openPicker opens a picker for target and, when from is set, loads the
// designs of that collection filtered by query.
func (e *environment) openPicker(cmd *cobra.Command, target, from, query string) (*picker.Picker, error) {
	p := picker.New(e.client, e.sellers(), e.cfg.APIBaseURL)
	p.Debounce = 0
	if err := p.Open(cmd.Context(), target); err != nil {
		return nil, err
	}
	if from == "" {
		return p, nil
	}
	if err := p.SelectCollection(cmd.Context(), from); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.SetQuery(query); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func newExistingCollectionsCmd(env *environment) *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collections designs can be copied from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := collection
			if target == "" {
				target = env.workspace.CollectionID
			}
			p, err := env.openPicker(cmd, target, "", "")
			if err != nil {
				return err
			}
			defer p.Close()
			renderCollections(cmd.OutOrStdout(), p.Collections())
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection ID (defaults to the workspace collection)")

	return cmd
}

func newExistingListCmd(env *environment) *cobra.Command {
	var from, query string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List the tile designs of a collection",
		Example: `  tileadmin existing list --from 64f0a1 --query blue`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := env.openPicker(cmd, env.workspace.CollectionID, from, query)
			if err != nil {
				return err
			}
			defer p.Close()
			renderRows(cmd.OutOrStdout(), p.Visible())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source collection ID")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only designs whose name contains this text")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newExistingAddCmd(env *environment) *cobra.Command {
	var from, query, collection string
	var ids []string
	var all bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add designs from another collection to the drafts",
		Example: `  tileadmin existing add --from 64f0a1 --id 65a1 --id 65a2
  tileadmin existing add --from 64f0a1 --query marble --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := env.collection(collection)
			if err != nil {
				return err
			}
			if !all && len(ids) == 0 {
				return fmt.Errorf("pass --all or at least one --id")
			}

			p, err := env.openPicker(cmd, target, from, query)
			if err != nil {
				return err
			}
			defer p.Close()

			if all {
				if query == "" {
					p.ToggleAll()
				} else {
					for _, r := range p.Visible() {
						p.Toggle(r.TileDesignID)
					}
				}
			}
			for _, id := range ids {
				if !p.IsSelected(id) {
					p.Toggle(id)
				}
			}

			drafts, err := p.Proceed()
			if err != nil {
				consoleNotifier{w: cmd.ErrOrStderr()}.Notify(notify.Error, "No tiles selected!")
				return err
			}

			items := make([]models.Draft, len(drafts))
			for i, d := range drafts {
				items[i] = d
			}
			added := env.workspace.Store.Append(items...)
			if env.workspace.CollectionID == "" {
				env.workspace.CollectionID = target
			}
			if err := env.save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d selected designs\n", added, len(drafts))
			renderDrafts(cmd.OutOrStdout(), env.workspace.Store.Drafts())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source collection ID")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection ID (defaults to the workspace collection)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only designs whose name contains this text")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Tile design ID to add (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Add every listed design")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newExistingExportCmd(env *environment) *cobra.Command {
	var from, query, out string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the tile designs of a collection to a Parquet file",
		Example: `  tileadmin existing export --from 64f0a1 --out marble.parquet`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := env.openPicker(cmd, env.workspace.CollectionID, from, query)
			if err != nil {
				return err
			}
			defer p.Close()

			rows := p.Visible()
			if err := export.WriteFile(out, from, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d designs to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source collection ID")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only designs whose name contains this text")
	cmd.Flags().StringVarP(&out, "out", "o", "designs.parquet", "Output file")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
