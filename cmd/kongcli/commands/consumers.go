package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/client"
	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/internal/view"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

var credentialColumns = []string{"id", "consumer.id", "created_at"}

// NewConsumersCommand creates the consumers command group.
func NewConsumersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "consumers",
		Aliases: []string{"consumer"},
		Short:   "Manage consumers",
		Long:    "List, create, update and delete consumers together with their groups and credentials",
	}

	cmd.AddCommand(newConsumersListCommand())
	cmd.AddCommand(newConsumersCreateCommand())
	cmd.AddCommand(newConsumersRetrieveCommand())
	cmd.AddCommand(newConsumersUpdateCommand())
	cmd.AddCommand(newConsumersDeleteCommand())
	cmd.AddCommand(newConsumersAddGroupsCommand())
	cmd.AddCommand(newConsumersDeleteGroupsCommand())
	cmd.AddCommand(newBasicAuthCommand())
	cmd.AddCommand(newKeyAuthCommand())

	return cmd
}

func newConsumersListCommand() *cobra.Command {
	var fullKeys bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List consumers",
		Long:  "List all consumers with their acl groups, plugins and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				src, err := loadConsumerSources(ctx, gateway)
				if err != nil {
					return err
				}

				rows := view.ConsumerRows(src, fullKeys)

				return render(cmd, rows, view.ConsumersTable(rows), "No consumers found")
			})
		},
	}

	cmd.Flags().BoolVar(&fullKeys, "full-keys", false, "show full keys for key-auth")

	return cmd
}

func loadConsumerSources(ctx context.Context, gateway kong.Client) (view.ConsumerSources, error) {
	var src view.ConsumerSources

	targets := []struct {
		resource kong.Resource
		into     *[]kong.Record
	}{
		{kong.Consumers, &src.Consumers},
		{kong.Plugins, &src.Plugins},
		{kong.ACLs, &src.ACLs},
		{kong.BasicAuths, &src.BasicAuths},
		{kong.KeyAuths, &src.KeyAuths},
	}

	for _, target := range targets {
		records, err := gateway.AllOf(ctx, target.resource)
		if err != nil {
			return src, kong.WrapContext(err, "failed to list %s", target.resource)
		}

		*target.into = records
	}

	return src, nil
}

func newConsumersCreateCommand() *cobra.Command {
	var (
		username string
		customID string
		data     []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a consumer",
		Long:  "Create a consumer. At least one of --username or --custom-id is required by the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if username != "" {
				payload["username"] = username
			}

			if customID != "" {
				payload["custom_id"] = customID
			}

			payload, err := mergeData(payload, data)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				consumer, err := gateway.Add(ctx, kong.Consumers, payload)
				if err != nil {
					return kong.WrapContext(err, "failed to create consumer")
				}

				return renderRecord(cmd, consumer)
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "unique username of the consumer")
	cmd.Flags().StringVar(&customID, "custom-id", "", "unique id mapping the consumer to an external database")
	addDataFlag(cmd, &data)

	return cmd
}

func newConsumersRetrieveCommand() *cobra.Command {
	var acls, basicAuths, keyAuths, plugins bool

	cmd := &cobra.Command{
		Use:   "retrieve USERNAME_OR_ID",
		Short: "Retrieve a consumer",
		Long:  "Display a consumer and optionally its groups, credentials and plugins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				consumer, err := gateway.Retrieve(ctx, kong.Consumers, args[0])
				if err != nil {
					return kong.WrapContext(err, "failed to retrieve consumer %s", args[0])
				}

				id := kong.StringField(consumer, "id")
				sections := []section{{
					key:     "consumer",
					title:   "consumer",
					data:    consumer,
					table:   view.PropertiesTable(view.Prepare(consumer)),
					enabled: true,
				}}

				nested := []struct {
					enabled bool
					key     string
					title   string
					list    func(ctx context.Context, consumer string) ([]kong.Record, error)
					columns []string
				}{
					{acls, "acls", "acl groups", gateway.Consumers().Groups, []string{"id", "group", "created_at"}},
					{basicAuths, "basic_auths", "basic auth credentials", gateway.Consumers().BasicAuths, []string{"id", "username", "created_at"}},
					{keyAuths, "key_auths", "key auth credentials", gateway.Consumers().KeyAuths, []string{"id", "key", "created_at"}},
					{plugins, "plugins", "plugins", gateway.Consumers().Plugins, []string{"id", "name", "enabled", "config"}},
				}

				for _, n := range nested {
					if !n.enabled {
						continue
					}

					records, err := n.list(ctx, id)
					if err != nil {
						return kong.WrapContext(err, "failed to list %s of consumer %s", n.title, args[0])
					}

					sections = append(sections, section{
						key:     n.key,
						title:   n.title,
						data:    records,
						table:   view.RecordsTable(view.PrepareAll(records), n.columns...),
						empty:   "None",
						enabled: true,
					})
				}

				return renderSections(cmd, sections...)
			})
		},
	}

	cmd.Flags().BoolVar(&acls, "acls", false, "also show acl groups")
	cmd.Flags().BoolVar(&basicAuths, "basic-auths", false, "also show basic-auth credentials")
	cmd.Flags().BoolVar(&keyAuths, "key-auths", false, "also show key-auth credentials")
	cmd.Flags().BoolVar(&plugins, "plugins", false, "also show plugins configured for the consumer")

	return cmd
}

func newConsumersUpdateCommand() *cobra.Command {
	var (
		username string
		customID string
		data     []string
	)

	cmd := &cobra.Command{
		Use:   "update USERNAME_OR_ID",
		Short: "Update a consumer",
		Long:  "Update fields of a consumer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("username") {
				payload["username"] = username
			}

			if cmd.Flags().Changed("custom-id") {
				payload["custom_id"] = customID
			}

			return updateResource(cmd, kong.Consumers, args[0], payload, data)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&customID, "custom-id", "", "new custom id")
	addDataFlag(cmd, &data)

	return cmd
}

func newConsumersDeleteCommand() *cobra.Command {
	return newDeleteCommand(kong.Consumers, "USERNAME_OR_ID")
}

func newConsumersAddGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-groups USERNAME_OR_ID GROUP...",
		Short: "Add a consumer to acl groups",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				for _, group := range args[1:] {
					_, err := gateway.Consumers().AddGroup(ctx, args[0], group)
					if kong.IsConflict(err) {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is already in group %s\n", args[0], group)

						continue
					}

					if err != nil {
						return err
					}

					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s to group %s\n", args[0], group)
				}

				return nil
			})
		},
	}
}

func newConsumersDeleteGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-groups USERNAME_OR_ID GROUP...",
		Short: "Remove a consumer from acl groups",
		Long:  "Remove a consumer from acl groups, given by group name or acl id",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				for _, group := range args[1:] {
					if err := gateway.Consumers().DeleteGroup(ctx, args[0], group); err != nil {
						return err
					}

					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from group %s\n", args[0], group)
				}

				return nil
			})
		},
	}
}

func newBasicAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "basic-auth",
		Short: "Manage basic-auth credentials of a consumer",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list USERNAME_OR_ID",
		Short: "List basic-auth credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				creds, err := gateway.Consumers().BasicAuths(ctx, args[0])
				if err != nil {
					return err
				}

				return renderRecords(cmd, creds, "No basic-auth credentials found",
					append([]string{"username"}, credentialColumns...)...)
			})
		},
	})

	var username, password string

	add := &cobra.Command{
		Use:   "add USERNAME_OR_ID",
		Short: "Add a basic-auth credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				cred, err := gateway.Consumers().AddBasicAuth(ctx, args[0], username, password)
				if err != nil {
					return err
				}

				return renderRecord(cmd, cred)
			})
		},
	}
	add.Flags().StringVar(&username, "username", "", "credential username")
	add.Flags().StringVar(&password, "password", "", "credential password")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")
	cmd.AddCommand(add)

	var newUsername, newPassword string

	update := &cobra.Command{
		Use:   "update USERNAME_OR_ID CREDENTIAL_ID",
		Short: "Update a basic-auth credential",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				cred, err := gateway.Consumers().UpdateBasicAuth(ctx, args[0], args[1], newUsername, newPassword)
				if err != nil {
					return err
				}

				return renderRecord(cmd, cred)
			})
		},
	}
	update.Flags().StringVar(&newUsername, "username", "", "new username")
	update.Flags().StringVar(&newPassword, "password", "", "new password")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete USERNAME_OR_ID CREDENTIAL_ID",
		Short: "Delete a basic-auth credential",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				if err := gateway.Consumers().DeleteBasicAuth(ctx, args[0], args[1]); err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted basic-auth credential %s\n", args[1])

				return nil
			})
		},
	})

	return cmd
}

func newKeyAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key-auth",
		Short: "Manage key-auth credentials of a consumer",
	}

	var fullKeys bool

	list := &cobra.Command{
		Use:   "list USERNAME_OR_ID",
		Short: "List key-auth credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				creds, err := gateway.Consumers().KeyAuths(ctx, args[0])
				if err != nil {
					return err
				}

				if outputFormat() == constants.FormatTable {
					masked := make([]kong.Record, 0, len(creds))
					for _, cred := range creds {
						row := kong.Record{}
						for k, v := range cred {
							row[k] = v
						}

						row["key"] = view.MaskKey(kong.StringField(cred, "key"), fullKeys)
						masked = append(masked, row)
					}

					creds = masked
				}

				return renderRecords(cmd, creds, "No key-auth credentials found",
					append([]string{"key"}, credentialColumns...)...)
			})
		},
	}
	list.Flags().BoolVar(&fullKeys, "full-keys", false, "show full keys")
	cmd.AddCommand(list)

	var key string

	add := &cobra.Command{
		Use:   "add USERNAME_OR_ID",
		Short: "Add a key-auth credential",
		Long:  "Add a key-auth credential. Without --key the gateway generates one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				cred, err := gateway.Consumers().AddKeyAuth(ctx, args[0], key)
				if err != nil {
					return err
				}

				return renderRecord(cmd, cred)
			})
		},
	}
	add.Flags().StringVar(&key, "key", "", "the key, generated when empty")
	cmd.AddCommand(add)

	var newKey string

	update := &cobra.Command{
		Use:   "update USERNAME_OR_ID CREDENTIAL_ID",
		Short: "Update a key-auth credential",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				cred, err := gateway.Consumers().UpdateKeyAuth(ctx, args[0], args[1], newKey)
				if err != nil {
					return err
				}

				return renderRecord(cmd, cred)
			})
		},
	}
	update.Flags().StringVar(&newKey, "key", "", "the new key")
	_ = update.MarkFlagRequired("key")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete USERNAME_OR_ID CREDENTIAL_ID",
		Short: "Delete a key-auth credential",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, gateway *client.Client) error {
				if err := gateway.Consumers().DeleteKeyAuth(ctx, args[0], args[1]); err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted key-auth credential %s\n", args[1])

				return nil
			})
		},
	})

	return cmd
}
