package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show information on the gateway node",
		Long:  "Display the node information served at the root of the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				info, err := gateway.Information(ctx)
				if err != nil {
					return kong.WrapContext(err, "failed to get node information")
				}

				return renderRecord(cmd, info)
			})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the gateway node status",
		Long:  "Display connection and database health reported by the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				status, err := gateway.Status(ctx)
				if err != nil {
					return kong.WrapContext(err, "failed to get node status")
				}

				return renderRecord(cmd, status)
			})
		},
	}
}
