package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoplist/internal/loader"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// itemFlags are the editable fields shared by add and edit.
type itemFlags struct {
	name        string
	description string
	category    string
	quantity    int64
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "item name")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "item description")
	cmd.Flags().StringVarP(&f.category, "category", "c", types.CategoryOther.String(), "category: other, food, diary (or 0-2)")
	cmd.Flags().Int64VarP(&f.quantity, "quantity", "q", 0, "quantity")
}

// values builds a payload from the flags the user actually set. With all
// set, every field is included.
func (f *itemFlags) values(cmd *cobra.Command, all bool) (types.Values, error) {
	v := types.NewValues()
	changed := func(name string) bool { return all || cmd.Flags().Changed(name) }

	if changed("name") {
		v.PutString(types.ColumnName, strings.TrimSpace(f.name))
	}
	if changed("description") {
		v.PutString(types.ColumnDescription, strings.TrimSpace(f.description))
	}
	if changed("category") {
		c, err := types.ParseCategory(f.category)
		if err != nil {
			return nil, err
		}
		v.PutInt(types.ColumnCategory, int64(c))
	}
	if changed("quantity") {
		v.PutInt(types.ColumnQuantity, f.quantity)
	}
	return v, nil
}

func newAddCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item to the list",
		Long: `Add inserts a new item. A blank item (no name, description or quantity)
is skipped; an item with other fields but no name is rejected.

Example:
  shoplist add --name Milk --category diary --quantity 2`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(f.name)
			if name == "" {
				if strings.TrimSpace(f.description) == "" && !cmd.Flags().Changed("quantity") {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to add.")
					return nil
				}
				return userError(errors.New("name is required"))
			}

			values, err := f.values(cmd, true)
			if err != nil {
				return err
			}
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				addr, err := repo.Insert(ctx, types.CollectionAddress, values)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"address": addr})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", addr)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var category, sortOrder string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Long: `List prints every item, optionally filtered by category and sorted by
one or more columns.

Example:
  shoplist list
  shoplist list --category food --sort "name ASC"`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := types.Query{SortOrder: sortOrder}
			if category != "" {
				c, err := types.ParseCategory(category)
				if err != nil {
					return err
				}
				q.Selection = types.ColumnCategory + " = ?"
				q.SelectionArgs = []any{int64(c)}
			}

			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				m := loader.NewManager(repo, loader.WithLogger(a.log))
				defer m.Close()

				res := <-m.Submit(ctx, types.CollectionAddress, q)
				if res.Err != nil {
					return res.Err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), res.Items)
				}
				return printItems(cmd.OutOrStdout(), res.Items)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only items in this category")
	cmd.Flags().StringVar(&sortOrder, "sort", "", `sort order, e.g. "name ASC, quantity DESC"`)
	return cmd
}

// errItemNotFound reports a record address with no item.
var errItemNotFound = errors.New("item not found")

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|address>",
		Short: "Show one item",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				c, err := repo.Query(ctx, addr, types.Query{})
				if err != nil {
					return err
				}
				items, err := types.Collect(c)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					return userError(fmt.Errorf("%s: %w", addr, errItemNotFound))
				}
				if a.jsonMode {
					if len(items) == 1 {
						return printJSON(cmd.OutOrStdout(), items[0])
					}
					return printJSON(cmd.OutOrStdout(), items)
				}
				for i, it := range items {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout())
					}
					printItem(cmd.OutOrStdout(), it)
				}
				return nil
			})
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <id|address>",
		Short: "Change fields of an item",
		Long: `Edit updates only the fields given as flags.

Example:
  shoplist edit 3 --quantity 5`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			values, err := f.values(cmd, false)
			if err != nil {
				return err
			}
			if values.Len() == 0 {
				return userError(errors.New("nothing to change: pass at least one of --name, --description, --category, --quantity"))
			}
			if name, ok := values.AsString(types.ColumnName); ok && name == "" {
				return userError(errors.New("name must not be blank"))
			}

			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				n, err := repo.Update(ctx, addr, values, "")
				if err != nil {
					return err
				}
				if n == 0 {
					return userError(fmt.Errorf("%s: %w", addr, errItemNotFound))
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"address": addr, "updated": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d item(s)\n", n)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|address>",
		Short: "Delete one item",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			if addr == types.CollectionAddress {
				return userError(errors.New("use clear to delete every item"))
			}
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				n, err := repo.Delete(ctx, addr, "")
				if err != nil {
					return err
				}
				return printDeleted(cmd, a.jsonMode, n)
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return userError(errors.New("refusing to delete all items without --yes"))
			}
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				n, err := repo.Delete(ctx, types.CollectionAddress, "")
				if err != nil {
					return err
				}
				return printDeleted(cmd, a.jsonMode, n)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting all items")
	return cmd
}

func printDeleted(cmd *cobra.Command, jsonMode bool, n int64) error {
	if jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s)\n", n)
	return nil
}

func newTypeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "type <id|address>",
		Short: "Print the content type of an address",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			return a.withRepo(cmd, func(_ context.Context, repo types.Repository) error {
				mime, err := repo.TypeOf(addr)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"address": addr, "type": mime})
				}
				fmt.Fprintln(cmd.OutOrStdout(), mime)
				return nil
			})
		},
	}
}
