package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// updateResource merges typed flag values with -d data and patches the
// record. An empty payload is rejected before any request is sent.
func updateResource(cmd *cobra.Command, resource kong.Resource, idOrName string, payload map[string]interface{}, data []string) error {
	payload, err := mergeData(payload, data)
	if err != nil {
		return err
	}

	if len(payload) == 0 {
		return constants.ErrNothingToUpdate
	}

	return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
		record, err := gateway.Update(ctx, resource, idOrName, payload)
		if err != nil {
			return kong.WrapContext(err, "failed to update %s %s", resource, idOrName)
		}

		return renderRecord(cmd, record)
	})
}

// newUpdateCommand creates an update command that only takes -d data.
func newUpdateCommand(resource kong.Resource, arg string) *cobra.Command {
	var data []string

	cmd := &cobra.Command{
		Use:   "update " + arg,
		Short: "Update " + singular(resource),
		Long:  "Update fields of " + singular(resource) + " given as -d key=value pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateResource(cmd, resource, args[0], map[string]interface{}{}, data)
		},
	}

	addDataFlag(cmd, &data)

	return cmd
}

// newDeleteCommand creates a delete command for one or more records.
func newDeleteCommand(resource kong.Resource, arg string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete " + arg + "...",
		Short: "Delete " + singular(resource),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				for _, idOrName := range args {
					if err := gateway.Delete(ctx, resource, idOrName); err != nil {
						return kong.WrapContext(err, "failed to delete %s %s", resource, idOrName)
					}

					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", singularNoun(resource), idOrName)
				}

				return nil
			})
		},
	}
}

func singularNoun(resource kong.Resource) string {
	switch resource {
	case kong.Consumers:
		return "consumer"
	case kong.Services:
		return "service"
	case kong.Routes:
		return "route"
	case kong.Plugins:
		return "plugin"
	default:
		return resource.String()
	}
}

func singular(resource kong.Resource) string {
	return "a " + singularNoun(resource)
}
