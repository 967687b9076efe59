package cmd

import (
	"fmt"
	"log/slog"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/ingest"
	"github.com/tilemart/tileadmin/internal/models"
)

func newUploadCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload tile images or a catalog PDF for extraction",
	}

	cmd.AddCommand(newUploadImagesCmd(env))
	cmd.AddCommand(newUploadPDFCmd(env))
	cmd.AddCommand(newUploadCancelCmd(env))

	return cmd
}

func (e *environment) newUploader(cmd *cobra.Command) *ingest.Uploader {
	return ingest.NewUploader(e.client, e.workspace.Store, e.sellers(), consoleNotifier{w: cmd.ErrOrStderr()})
}

func newUploadImagesCmd(env *environment) *cobra.Command {
	var collection, thickness string

	cmd := &cobra.Command{
		Use:   "images FILE...",
		Short: "Extract tiles from one or more images",
		Long: `Uploads tile images for color detection. Each returned tile becomes an
unnamed draft with the given thickness. Images larger than
TILEADMIN_MAX_DIMENSION pixels are downscaled before upload.`,
		Example: `  tileadmin upload images --collection 64f0c2 --thickness 10 tiles/*.jpg`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collectionID, err := env.collection(collection)
			if err != nil {
				return err
			}

			preflight := images.Preflight{MaxDimension: env.cfg.MaxDimension}
			files := make([]models.UploadFile, 0, len(args))
			for _, path := range args {
				file, err := preflight.LoadImage(path)
				if err != nil {
					return err
				}
				files = append(files, file)
			}

			drafts, err := env.newUploader(cmd).UploadImages(cmd.Context(), collectionID, thickness, files)
			if err != nil {
				return err
			}

			env.workspace.CollectionID = collectionID
			if err := env.save(); err != nil {
				return err
			}
			slog.Debug("Upload complete", "drafts", len(drafts))
			renderDrafts(cmd.OutOrStdout(), env.workspace.Store.Drafts())
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection ID (defaults to the workspace collection)")
	cmd.Flags().StringVarP(&thickness, "thickness", "t", "", "Tile thickness in mm")

	return cmd
}

func newUploadPDFCmd(env *environment) *cobra.Command {
	var collection, thickness string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "pdf FILE",
		Short: "Extract tiles from a catalog PDF",
		Long: `Uploads a catalog PDF and waits for the backend to extract its tiles,
showing extraction progress. Interrupting the command cancels the
extraction on the server.`,
		Example: `  tileadmin upload pdf --collection 64f0c2 --thickness 9 catalog.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collectionID, err := env.collection(collection)
			if err != nil {
				return err
			}

			file, err := images.Preflight{}.LoadPDF(args[0])
			if err != nil {
				return err
			}

			var onProgress func(int)
			var bar *pb.ProgressBar
			if !quiet {
				bar = pb.New(100)
				bar.SetWriter(cmd.ErrOrStderr())
				bar.Set("prefix", file.Name+":")
				if err := bar.Err(); err != nil {
					return err
				}
				bar.Start()
				onProgress = func(p int) { bar.SetCurrent(int64(p)) }
			}

			drafts, err := env.newUploader(cmd).UploadPDF(cmd.Context(), collectionID, thickness, file, onProgress)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			env.workspace.CollectionID = collectionID
			if err := env.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tiles extracted from %s\n", len(drafts), file.Name)
			renderDrafts(cmd.OutOrStdout(), env.workspace.Store.Drafts())
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection ID (defaults to the workspace collection)")
	cmd.Flags().StringVarP(&thickness, "thickness", "t", "", "Tile thickness in mm")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress bar")

	return cmd
}

func newUploadCancelCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a running PDF extraction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.newUploader(cmd).CancelExtraction(cmd.Context())
		},
	}
}
