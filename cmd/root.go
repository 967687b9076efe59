package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tilemart/tileadmin/internal/config"
	"github.com/tilemart/tileadmin/internal/seller"
	"github.com/tilemart/tileadmin/internal/storage"
	"github.com/tilemart/tileadmin/internal/tileapi"
)

// environment is shared by all subcommands and filled in before they run.
type environment struct {
	cfg       *config.Config
	client    *tileapi.Client
	workspace *storage.Workspace
}

func (e *environment) sellers() seller.Source {
	return seller.Static(e.cfg.SellerID)
}

func (e *environment) save() error {
	if err := e.workspace.Save(e.cfg.Workspace); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	slog.Debug("Workspace saved", "path", e.cfg.Workspace, "drafts", e.workspace.Store.Len())
	return nil
}

// collection returns flagValue or, when empty, the workspace's collection.
func (e *environment) collection(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if e.workspace.CollectionID != "" {
		return e.workspace.CollectionID, nil
	}
	return "", fmt.Errorf("no collection: pass --collection or upload into one first")
}

func NewRootCmd() *cobra.Command {
	env := &environment{}
	var (
		apiURL    string
		sellerID  string
		workspace string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "tileadmin",
		Short: "Bulk tile ingestion for the tile marketplace",
		Long: `tileadmin uploads tile images or catalog PDFs for extraction, lets you
review and name the extracted tiles, copy designs from your other collections,
and commits everything to a collection in one step.

Drafts are kept in a local workspace file between commands.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIBaseURL = apiURL
			}
			if cmd.Flags().Changed("seller") {
				cfg.SellerID = sellerID
			}
			if cmd.Flags().Changed("workspace") {
				cfg.Workspace = workspace
			}

			ws, err := storage.LoadWorkspace(cfg.Workspace)
			if err != nil {
				return err
			}

			env.cfg = cfg
			env.client = tileapi.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
			env.workspace = ws
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", config.DefaultAPIBaseURL, "Marketplace API base URL (env TILEADMIN_API_BASE_URL)")
	cmd.PersistentFlags().StringVar(&sellerID, "seller", "", "Seller ID (env TILEADMIN_SELLER_ID)")
	cmd.PersistentFlags().StringVar(&workspace, "workspace", config.DefaultWorkspace, "Draft workspace file (env TILEADMIN_WORKSPACE)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newUploadCmd(env))
	cmd.AddCommand(newDraftsCmd(env))
	cmd.AddCommand(newExistingCmd(env))
	cmd.AddCommand(newCommitCmd(env))
	cmd.AddCommand(newServeCmd(env))

	return cmd
}
