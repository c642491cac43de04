package app

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/confirm"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/controller"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/options"
)

// ErrAborted is returned when a deletion is not confirmed.
var ErrAborted = errors.New("aborted")

var (
	data      string
	files     []string
	target    string
	assumeYes bool
	outPath   string

	createCmd = &cobra.Command{
		Use:   "create <entity>",
		Short: "Create a record; files given with --file are uploaded first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd.Context(), args[0], controllerOptions(&cfg))
			if err != nil {
				return err
			}
			defer ctrl.Close()

			row, err := payload(schemaOf(cmd.Context(), ctrl, target))
			if err != nil {
				return err
			}

			res, err := ctrl.Create(cmd.Context(), row,
				controller.WithTargetEntity(target), controller.WithoutReload())
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update <entity> <id>",
		Short: "Update a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd.Context(), args[0], controllerOptions(&cfg))
			if err != nil {
				return err
			}
			defer ctrl.Close()

			row, err := payload(ctrl.Snapshot().Schema)
			if err != nil {
				return err
			}

			res, err := ctrl.Update(cmd.Context(), parseValue(args[1]), row)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !assumeYes {
				d := confirm.NewDialog()
				confirm.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).Attach(d)

				ok, err := d.Ask(ctx, confirm.Prompt{
					Title:       "Delete " + args[0] + " " + args[1] + "?",
					ConfirmText: "yes",
					CancelText:  "no",
				})
				if err != nil {
					return err
				}

				if !ok {
					return ErrAborted
				}
			}

			ctrl, err := newController(ctx, args[0], controllerOptions(&cfg))
			if err != nil {
				return err
			}
			defer ctrl.Close()

			return ctrl.DeleteByID(ctx, parseValue(args[1]),
				controller.WithTargetEntity(target), controller.WithoutReload())
		},
	}

	exportCmd = &cobra.Command{
		Use:   "export <entity>",
		Short: "Export the records matching the query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filters, err := parseFilters(lf.filters)
			if err != nil {
				return err
			}

			opts := controllerOptions(&cfg)
			opts.Filters = filters

			ctrl, err := newController(ctx, args[0], opts)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			applyListFlags(ctx, ctrl, lf)

			blob, err := ctrl.ExportBlob(ctx)
			if err != nil {
				return err
			}

			if blob == nil {
				return errors.Errorf("backend returned no export for %s", args[0])
			}

			return writeOut(cmd.OutOrStdout(), outPath, blob.Data)
		},
	}
)

func init() { //nolint:gochecknoinits
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVarP(&data, "data", "d", "", "record as JSON object")
		c.Flags().StringArrayVar(&files, "file", nil, "attach a file as field=path, repeat for galleries")
	}

	createCmd.Flags().StringVar(&target, "target", "", "create in another entity")
	deleteCmd.Flags().StringVar(&target, "target", "", "delete from another entity")
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	ef := exportCmd.Flags()
	ef.StringVarP(&outPath, "out", "o", "-", "output file")
	ef.StringVarP(&lf.search, "search", "q", "", "search text")
	ef.StringVar(&lf.sort, "sort", "", "sort key")
	ef.BoolVar(&lf.desc, "desc", false, "sort descending")
	ef.StringArrayVarP(&lf.filters, "filter", "f", nil, "filter as key=value")

	rootCmd.AddCommand(createCmd, updateCmd, deleteCmd, exportCmd)
}

// payload reads --data, falling back to stdin for "-", and attaches the --file arguments.
func payload(schema entity.Schema) (entity.Row, error) {
	raw := data

	if raw == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}

		raw = string(b)
	}

	row, err := parseRow(raw)
	if err != nil {
		return nil, err
	}

	if err := attachFiles(row, files, schema); err != nil {
		return nil, err
	}

	return row, nil
}

// schemaOf returns the schema of target, or of the controller's entity when target is empty.
func schemaOf(ctx context.Context, ctrl *controller.Controller, target string) entity.Schema {
	if target == "" || target == ctrl.Entity() {
		return ctrl.Snapshot().Schema
	}

	client, err := newAPIClient(&cfg)
	if err != nil {
		return nil
	}

	opts, err := options.LoadEntityOptions(ctx, client, target)
	if err != nil {
		log.Warn().Err(err).Str("entity", target).Msg("no schema for target entity")
		return nil
	}

	return opts.Schema
}
