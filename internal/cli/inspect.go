package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitmix/pkg/catalog"
	"github.com/matzehuels/traitmix/pkg/pipeline"
)

// inspectCommand creates the inspect command: load every project's catalog
// and show its layers without generating anything.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show layers, trait weights and combination counts per project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Logger = loggerFromContext(cmd.Context())
			projects, err := c.newRunner().Load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())
			for _, p := range projects {
				printProject(out, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigDir, "config-folder", "c", pipeline.DefaultConfigDir, "folder with project config files")
	cmd.Flags().StringVarP(&opts.BlacklistFile, "bl-file", "b", pipeline.DefaultBlacklistFile, "blacklist config file")
	return cmd
}

func printProject(out printer, p pipeline.ProjectResult) {
	out.title(p.Config.Label())
	out.keyValue("Config", p.Name)
	out.keyValue("Path", p.Config.Path)
	out.keyValue("Amount", fmt.Sprint(p.Config.Amount))
	out.keyValue("Tolerance", fmt.Sprint(p.Config.EffectiveTolerance()))

	if p.Err != nil {
		out.failure("%v", p.Err)
		out.newline()
		return
	}

	combos := p.Catalog.Combinations()
	out.keyValue("Size", fmt.Sprintf("%dx%d", p.Catalog.Width, p.Catalog.Height))
	out.keyValue("Combinations", StyleNumber.Render(fmt.Sprint(combos)))
	fmt.Fprintln(out.w, layerTable(p.Catalog))

	if uint64(p.Config.Amount) > combos {
		out.warning("amount %d exceeds the %d possible combinations", p.Config.Amount, combos)
	}
	out.newline()
}

// layerTable renders one row per layer with each trait's share of the
// layer's total weight.
func layerTable(cat *catalog.Catalog) string {
	var rows [][]string
	for i := range cat.Layers {
		l := &cat.Layers[i]
		total := l.TotalWeight()
		var traits []string
		for _, t := range l.Traits {
			share := 0.0
			if total > 0 {
				share = float64(t.Weight) * 100 / float64(total)
			}
			traits = append(traits, fmt.Sprintf("%s %.1f%%", t.DisplayName(), share))
		}
		rules := "-"
		if n := len(l.Config.ExcludeIfTraits); n > 0 {
			rules = fmt.Sprint(n)
		}
		rows = append(rows, []string{l.Label(), fmt.Sprint(len(l.Traits)), fmt.Sprint(total), rules, strings.Join(traits, ", ")})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layer", "Traits", "Weight", "Rules", "Shares").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 4 {
				return cellStyle.Foreground(colorGray)
			}
			return cellStyle
		})
	return t.Render()
}
