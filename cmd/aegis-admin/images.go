package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/blobcheck"
	"github.com/aegisrent/aegis-console/internal/gateway"
	"github.com/aegisrent/aegis-console/internal/poll"
)

func newImagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Vehicle model images",
	}

	cmd.AddCommand(
		newImagesCheckCmd(a),
		newImagesSearchCmd(a),
	)

	return cmd
}

func newImagesCheckCmd(a *app) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "check <company-id>",
		Short: "List fleet models without an image in the bucket",
		Long: `List the makes and models of a company's fleet that have no image in
the configured images bucket. The bucket is set under 'images' in the config
file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}

			ic := a.cfg.Images
			if ic.Bucket == "" {
				return errors.New("no images bucket configured, set images.bucket in the config file")
			}
			checker, err := blobcheck.New(cmd.Context(), blobcheck.Config{
				Bucket:          ic.Bucket,
				Region:          ic.Region,
				Endpoint:        ic.Endpoint,
				AccessKeyID:     ic.AccessKeyID,
				SecretAccessKey: ic.SecretAccessKey,
				UsePathStyle:    ic.UsePathStyle,
				Prefix:          prefix,
			}, a.logger)
			if err != nil {
				return err
			}

			vehicles, err := client.Vehicles(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			models := make([]blobcheck.Model, 0, len(vehicles))
			for _, v := range vehicles {
				if blobcheck.Slug(v.Make) == "" || blobcheck.Slug(v.Model) == "" {
					a.logger.Debug().Str("vehicle_id", v.ID).Msg("skipping vehicle without make or model")
					continue
				}
				models = append(models, blobcheck.Model{Make: v.Make, Model: v.Model})
			}

			missing, err := checker.Missing(cmd.Context(), models)
			if err != nil {
				return fmt.Errorf("check images: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(missing) == 0 {
				fmt.Fprintf(out, "All %d vehicles have a model image.\n", len(vehicles))
				return nil
			}
			fmt.Fprintf(out, "%d models without an image:\n", len(missing))
			for _, m := range missing {
				fmt.Fprintf(out, "  %s %s  (%s)\n", m.Make, m.Model, checker.Key(m.Make, m.Model))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", blobcheck.DefaultPrefix, "key prefix of model images")

	return cmd
}

func newImagesSearchCmd(a *app) *cobra.Command {
	var (
		every   time.Duration
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search <make> <model>",
		Short: "Ask the backend to find images of a vehicle model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			search, err := client.StartImageSearch(ctx, args[0], args[1])
			if err != nil {
				return describe(err)
			}
			a.logger.Debug().Str("search_id", search.ID).Msg("image search started")

			if !search.Terminal() {
				waitCtx, cancel := contextWithTimeout(ctx, timeout)
				defer cancel()
				search, err = client.WaitImageSearch(waitCtx, search.ID, poll.Every(every))
				if err != nil {
					return describe(err)
				}
			}

			out := cmd.OutOrStdout()
			if search.Status == gateway.SearchFailed {
				return fmt.Errorf("image search failed: %s", orDash(search.Error))
			}
			if len(search.Images) == 0 {
				fmt.Fprintln(out, "No images found.")
				return nil
			}
			for _, img := range search.Images {
				if img.Source != "" {
					fmt.Fprintf(out, "%s  (%s)\n", img.URL, img.Source)
				} else {
					fmt.Fprintln(out, img.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&every, "every", gateway.ImageSearchPollInterval, "poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long, 0 waits forever")

	return cmd
}
