package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/controller"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/options"
)

type listFlags struct {
	page    int
	size    int
	sort    string
	desc    bool
	search  string
	filters []string
	id      string
	asJSON  bool
}

var (
	lf listFlags

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	listCmd = &cobra.Command{
		Use:   "list <entity>",
		Short: "List, search, filter and sort the records of an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}

	optionsCmd = &cobra.Command{
		Use:   "options <entity>",
		Short: "Print the normalized options document of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(&cfg)
			if err != nil {
				return err
			}

			opts, err := options.LoadEntityOptions(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), opts)
		},
	}

	refsCmd = &cobra.Command{
		Use:   "refs <entity> <field>",
		Short: "Print the selectable options of a reference field",
		Args:  cobra.ExactArgs(2),
		RunE:  runRefs,
	}
)

func init() { //nolint:gochecknoinits
	f := listCmd.Flags()
	f.IntVar(&lf.page, "page", 1, "page number")
	f.IntVar(&lf.size, "size", 0, "rows per page (default controller.pageSize)")
	f.StringVar(&lf.sort, "sort", "", "sort key")
	f.BoolVar(&lf.desc, "desc", false, "sort descending")
	f.StringVarP(&lf.search, "search", "q", "", "search text")
	f.StringArrayVarP(&lf.filters, "filter", "f", nil, `filter as key=value; value may be JSON, e.g. age={"op":"gte","value":18}`)
	f.StringVar(&lf.id, "id", "", "scope the listing to one record")
	f.BoolVar(&lf.asJSON, "json", false, "print the page as JSON")

	rootCmd.AddCommand(listCmd, optionsCmd, refsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filters, err := parseFilters(lf.filters)
	if err != nil {
		return err
	}

	opts := controllerOptions(&cfg)
	opts.Filters = filters

	if lf.size > 0 {
		opts.PageSize = lf.size
	}

	if lf.id != "" {
		opts.ID = parseValue(lf.id)
	}

	ctrl, err := newController(ctx, args[0], opts)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	applyListFlags(ctx, ctrl, lf)

	view := ctrl.Snapshot()
	if view.Error != "" {
		return errors.New(view.Error)
	}

	if lf.asJSON {
		return printJSON(cmd.OutOrStdout(), map[string]any{"items": view.PageItems, "total": view.Total})
	}

	return printView(cmd.OutOrStdout(), view)
}

// applyListFlags pushes the query flags into the controller; each setter reloads only on change.
func applyListFlags(ctx context.Context, ctrl *controller.Controller, f listFlags) {
	if f.search != "" {
		ctrl.SetSearch(ctx, f.search)
	}

	if f.sort != "" {
		ctrl.SetSortKey(ctx, f.sort)

		if f.desc {
			ctrl.SetSortDir(ctx, entity.SortDesc)
		}
	}

	if f.page > 1 {
		ctrl.SetPage(ctx, f.page)
	}
}

// printView writes the page as a table of the visible columns followed by a paging footer. The sort column
// header carries "^" or "v".
func printView(w io.Writer, v controller.View) error {
	headers := make([]string, len(v.Cols))

	for i, col := range v.Cols {
		switch {
		case v.IsSortedAsc(col):
			headers[i] = col + " ^"
		case v.IsSortedDesc(col):
			headers[i] = col + " v"
		default:
			headers[i] = col
		}
	}

	rows := make([][]string, 0, len(v.PageItems))

	for _, row := range v.PageItems {
		cells := make([]string, len(v.Cols))
		for i, col := range v.Cols {
			cells[i] = entity.ToString(row[col])
		}

		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	from := 0
	if len(v.PageItems) > 0 {
		from = v.StartIndex + 1
	}

	_, err := fmt.Fprintf(w, "%s\n%d-%d of %d, page %d/%d (%s mode)\n", t.Render(),
		from, v.StartIndex+len(v.PageItems), v.Total, v.CurPage, v.TotalPages, v.Mode)

	return err
}

func runRefs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, err := newController(ctx, args[0], controllerOptions(&cfg))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	field, ok := ctrl.Snapshot().Schema.Field(args[1])
	if !ok {
		return errors.Errorf("%s has no field %q", args[0], args[1])
	}

	if field.Ref == nil {
		return printJSON(cmd.OutOrStdout(), field.Options)
	}

	opts, err := ctrl.LoadRefOptions(ctx, field.Ref)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), opts)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// writeOut writes data to path, or to w when path is "-" or empty.
func writeOut(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
