package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// noDescription is printed in place of an empty description.
const noDescription = "(no description)"

func describe(it types.Item) string {
	if it.Description == "" {
		return noDescription
	}
	return it.Description
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printItem writes one item in the detail layout.
func printItem(w io.Writer, it types.Item) {
	fmt.Fprintf(w, "ID:          %d\n", it.ID)
	fmt.Fprintf(w, "Address:     %s\n", types.RecordAddress(it.ID))
	fmt.Fprintf(w, "Name:        %s\n", it.Name)
	fmt.Fprintf(w, "Description: %s\n", describe(it))
	fmt.Fprintf(w, "Category:    %s\n", it.Category)
	fmt.Fprintf(w, "Quantity:    %d\n", it.Quantity)
}

// printItems writes items as an aligned table.
func printItems(w io.Writer, items []types.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQTY\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", it.ID, it.Name, it.Category, it.Quantity, describe(it))
	}
	return tw.Flush()
}
