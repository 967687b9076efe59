package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/ingest"
	"github.com/tilemart/tileadmin/internal/naming"
	"github.com/tilemart/tileadmin/internal/storage"
)

func newDraftsCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Review and edit draft tiles before committing",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List draft tiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.workspace.CollectionID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Collection: %s\n", env.workspace.CollectionID)
			}
			renderDrafts(cmd.OutOrStdout(), env.workspace.Store.Drafts())
			return nil
		},
	})
	cmd.AddCommand(newDraftsSetCmd(env))
	cmd.AddCommand(newDraftsRmCmd(env))
	cmd.AddCommand(newSuggestNamesCmd(env))

	return cmd
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid draft index %q", s)
	}
	return i, nil
}

func newDraftsSetCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "set INDEX FIELD VALUE",
		Short: "Change a field of a draft (name, thickness or color)",
		Example: `  tileadmin drafts set 1 name "Marble White"
  tileadmin drafts set 0 thickness 12`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if _, ok := env.workspace.Store.Get(index); !ok {
				return fmt.Errorf("%w: %d", storage.ErrNoSuchDraft, index)
			}
			field, err := storage.ParseField(args[1])
			if err != nil {
				return err
			}
			if err := env.workspace.Store.UpdateField(index, field, args[2]); err != nil {
				return err
			}
			return env.save()
		},
	}
}

func newDraftsRmCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "rm INDEX",
		Aliases: []string{"remove"},
		Short:   "Remove a draft, deleting its staged image on the server",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			notifier := consoleNotifier{w: cmd.ErrOrStderr()}
			if err := ingest.RemoveDraft(cmd.Context(), env.workspace.Store, env.client, notifier, index); err != nil {
				return err
			}
			return env.save()
		},
	}
}

func newSuggestNamesCmd(env *environment) *cobra.Command {
	var provider, model string
	var overwrite, dryRun bool

	cmd := &cobra.Command{
		Use:   "suggest-names",
		Short: "Fill in names for unnamed extracted drafts",
		Long: `Suggests names for extracted drafts that have none. The server provider
uses the names returned by the extraction backend; gemini, ollama and openai
ask a vision model to name each tile from its staged image.`,
		Example: `  tileadmin drafts suggest-names
  tileadmin drafts suggest-names --provider ollama --model llava --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("provider") {
				provider = env.cfg.NamingProvider
			}
			if !cmd.Flags().Changed("model") {
				model = env.cfg.NamingModel
			}

			p, resolvedModel, err := naming.NewProvider(naming.Options{
				Provider:     provider,
				Model:        model,
				GeminiAPIKey: env.cfg.GeminiAPIKey,
				OllamaURL:    env.cfg.OllamaURL,
				OpenAIAPIKey: env.cfg.OpenAIAPIKey,
			})
			if err != nil {
				return err
			}

			suggester := &naming.Suggester{
				Provider:  p,
				Model:     resolvedModel,
				Images:    images.NewFetcher(),
				ImageBase: env.cfg.APIBaseURL,
			}
			suggestions, suggestErr := suggester.Suggest(cmd.Context(), env.workspace.Store.Drafts(), overwrite)

			for _, s := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", s.Index, s.Name)
				if dryRun {
					continue
				}
				if err := env.workspace.Store.UpdateField(s.Index, storage.FieldName, s.Name); err != nil {
					return err
				}
			}
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No names suggested.")
			}

			if !dryRun && len(suggestions) > 0 {
				if err := env.save(); err != nil {
					return errors.Join(suggestErr, err)
				}
			}
			return suggestErr
		},
	}

	cmd.Flags().StringVar(&provider, "provider", naming.ProviderServer, "Naming provider: server, gemini, ollama or openai (env TILEADMIN_NAMING_PROVIDER)")
	cmd.Flags().StringVar(&model, "model", "", "Model for the naming provider")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Also rename drafts that already have a name")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print suggestions without saving them")

	return cmd
}
