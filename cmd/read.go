package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/output"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the page's accessibility tree",
	Long: `Read the accessibility snapshot of a tab and output it as structured data.
Iframes are flattened into the page tree with coordinates translated to the
top frame's viewport. Element IDs are stable within one read only.`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	addTabFlag(readCmd)
	readCmd.Flags().String("roles", "", "Comma-separated roles to include (e.g. \"btn,lnk,input\" or \"interactive\")")
	readCmd.Flags().String("text", "", "Filter elements by text content")
	readCmd.Flags().Bool("focused", false, "Only return the currently focused element")
	readCmd.Flags().String("bbox", "", "Only include elements within viewport box (x,y,w,h)")
	readCmd.Flags().Bool("flat", false, "Flatten the tree with path breadcrumbs")
	readCmd.Flags().Int("max-elements", 0, "Max elements in output (0 = unlimited, flat output only)")
	readCmd.Flags().Bool("pretty", false, "Pretty-print JSON")
}

func runRead(cmd *cobra.Command, args []string) error {
	rolesStr, _ := cmd.Flags().GetString("roles")
	text, _ := cmd.Flags().GetString("text")
	focused, _ := cmd.Flags().GetBool("focused")
	bboxStr, _ := cmd.Flags().GetString("bbox")
	flat, _ := cmd.Flags().GetBool("flat")
	maxElements, _ := cmd.Flags().GetInt("max-elements")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	snap, err := eng.Snapshot(ctx, tab.ID)
	if err != nil {
		return err
	}
	elements := snap.Roots

	var roles []string
	if rolesStr != "" {
		for _, r := range strings.Split(rolesStr, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		roles = model.ExpandRoles(roles)
	}

	var bbox *[4]int
	if bboxStr != "" {
		parsed, err := parseBBox(bboxStr)
		if err != nil {
			return err
		}
		bbox = parsed
	}

	if roles != nil || bbox != nil {
		elements = model.FilterElements(elements, roles, bbox)
	}
	if text != "" {
		elements = model.FilterByText(elements, text)
	}
	if focused {
		elements = model.FilterByFocused(elements)
	}

	ts := time.Now().Unix()
	if flat {
		flatElements := model.FlattenElements(elements)
		if maxElements > 0 && len(flatElements) > maxElements {
			flatElements = flatElements[:maxElements]
		}
		return output.Print(output.ReadFlatResult{
			Tab: tab.ID, URL: tab.URL, Title: tab.Title, TS: ts, Elements: flatElements,
		})
	}
	return output.Print(output.ReadResult{
		Tab: tab.ID, URL: tab.URL, Title: tab.Title, TS: ts, Elements: elements,
	})
}

// parseBBox parses a "x,y,w,h" string.
func parseBBox(s string) (*[4]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bbox %q: expected x,y,w,h", s)
	}
	var box [4]int
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &box[i]); err != nil {
			return nil, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
	}
	return &box, nil
}
