package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/tillsync/internal/models"
)

// NewCompleteOrderCommand создает команду закрытия заказа с оплатой
func NewCompleteOrderCommand(opts *RootOptions) *cobra.Command {
	var (
		payment  string
		noDeduct bool
	)

	cmd := &cobra.Command{
		Use:     "complete-order <order-id>",
		Short:   "Record a payment and complete the order (online only)",
		Example: `  tillsync-edge complete-order ord-1 --payment '{"amount_cents":1250,"method":"card"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(payment)
			if err != nil {
				return err
			}
			req := models.CompleteOrderRequest{OrderID: args[0], Payment: rec}
			if noDeduct {
				deduct := false
				req.DeductInventory = &deduct
			}

			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				res, err := n.coord.CompleteOrderWithPayment(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVar(&payment, "payment", "", "payment row (JSON)")
	cmd.Flags().BoolVar(&noDeduct, "no-deduct", false, "do not deduct inventory for order items")
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}

// parseItem разбирает позицию перемещения "product:quantity[:variant]"
func parseItem(expr string) (models.TransferItem, error) {
	parts := strings.Split(expr, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return models.TransferItem{}, fmt.Errorf("invalid item %q, expected product:quantity[:variant]", expr)
	}
	qty, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || qty <= 0 {
		return models.TransferItem{}, fmt.Errorf("invalid quantity in item %q", expr)
	}
	item := models.TransferItem{ProductID: parts[0], Quantity: qty}
	if len(parts) == 3 {
		item.VariantID = parts[2]
	}
	return item, nil
}

// NewTransferCommand создает команду перемещения остатков между магазинами
func NewTransferCommand(opts *RootOptions) *cobra.Command {
	var (
		from     string
		to       string
		items    []string
		employee string
		notes    string
	)

	cmd := &cobra.Command{
		Use:     "transfer",
		Short:   "Move inventory between stores (online only)",
		Example: `  tillsync-edge transfer --from store-1 --to store-2 --item p1:3 --item p2:1:large`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.TransferRequest{
				FromStoreID: from,
				ToStoreID:   to,
				EmployeeID:  employee,
				Notes:       notes,
			}
			for _, expr := range items {
				item, err := parseItem(expr)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}

			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				res, err := n.coord.TransferInventory(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source store id")
	cmd.Flags().StringVar(&to, "to", "", "destination store id")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item product:quantity[:variant] (repeatable)")
	cmd.Flags().StringVar(&employee, "employee", "", "employee id")
	cmd.Flags().StringVar(&notes, "notes", "", "transfer notes")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}
