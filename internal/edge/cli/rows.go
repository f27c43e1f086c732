package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

var operators = []storage.Operator{
	storage.OpNeq, storage.OpGte, storage.OpLte, storage.OpEq,
	storage.OpGt, storage.OpLt, storage.OpIn, storage.OpLike, storage.OpIs,
}

// parseWhere разбирает предикат вида "column op value".
// Значение читается как JSON, при ошибке остаётся строкой.
func parseWhere(expr string) (storage.Filter, error) {
	fields := strings.SplitN(strings.TrimSpace(expr), " ", 3)
	if len(fields) < 2 {
		return storage.Filter{}, fmt.Errorf("%w: expected \"column op value\", got %q", storage.ErrInvalidQuery, expr)
	}

	op := storage.Operator(strings.ToLower(fields[1]))
	known := false
	for _, candidate := range operators {
		if op == candidate {
			known = true
			break
		}
	}
	if !known {
		return storage.Filter{}, fmt.Errorf("%w: unknown operator %q", storage.ErrInvalidQuery, fields[1])
	}

	f := storage.Filter{Column: fields[0], Op: op}
	if len(fields) == 3 {
		raw := strings.TrimSpace(fields[2])
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		f.Value = v
	}
	return f, nil
}

// parseOrder разбирает ключ сортировки "column[:desc]"
func parseOrder(expr string) storage.Order {
	column, dir, _ := strings.Cut(expr, ":")
	return storage.Order{Column: column, Desc: strings.EqualFold(dir, "desc")}
}

func parseRecord(raw string) (models.Record, error) {
	rec, err := models.DecodeRecord([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record is empty", storage.ErrInvalidRecord)
	}
	return rec, nil
}

// NewSelectCommand создает команду выборки строк
func NewSelectCommand(opts *RootOptions) *cobra.Command {
	var (
		where  []string
		order  []string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Select rows from a table",
		Example: `  tillsync-edge select orders --where "status = pending" --order created_at:desc --limit 10
  tillsync-edge select products --where 'price_cents >= 1000'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := &storage.SelectOptions{Limit: limit, Offset: offset}
			for _, expr := range where {
				f, err := parseWhere(expr)
				if err != nil {
					return err
				}
				sel.Filters = append(sel.Filters, f)
			}
			for _, expr := range order {
				sel.OrderBy = append(sel.OrderBy, parseOrder(expr))
			}
			if err := sel.Validate(); err != nil {
				return err
			}

			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				res, err := n.coord.Select(ctx, args[0], sel)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "filter \"column op value\" (repeatable)")
	cmd.Flags().StringArrayVar(&order, "order", nil, "sort key column[:desc] (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (0 = no limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

// NewGetCommand создает команду чтения одной строки
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Read one row by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				rec, err := n.coord.SelectOne(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("%s/%s: %w", args[0], args[1], storage.ErrNotFound)
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

// NewInsertCommand создает команду вставки строки
func NewInsertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "insert <table> <json>",
		Short:   "Insert a row",
		Example: `  tillsync-edge insert orders '{"status":"pending","total_cents":1250}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[1])
			if err != nil {
				return err
			}
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				saved, err := n.coord.Insert(ctx, args[0], rec)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}

// NewUpdateCommand создает команду частичного обновления строки
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> <json>",
		Short: "Merge a patch into a row",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseRecord(args[2])
			if err != nil {
				return err
			}
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				saved, err := n.coord.Update(ctx, args[0], args[1], patch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}

// NewDeleteCommand создает команду удаления строки
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				id, err := n.coord.Delete(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
			})
		},
	}
}
