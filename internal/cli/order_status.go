package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront_back_end/internal/models"
)

// NewOrderStatusCommand creates the order-status command.
func NewOrderStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:          "order-status <order-id> <pending|processing|shipped|delivered>",
		Short:        "Change the status of an order",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}

			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			o, err := a.Orders.SetStatus(cmd.Context(), args[0], status, notify)
			if err != nil {
				return fmt.Errorf("order %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s is now %s\n", o.ID, o.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "email the customer about the change")
	return cmd
}
