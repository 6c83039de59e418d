package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/diogo/chatdeck/internal/models"
)

var modelsProviderFlag string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long: `List the models of the configured descriptor ('models_url'), grouped
by provider. The built-in list is used when the descriptor cannot be loaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ephemeralFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.services(ctx)
		if err != nil {
			return err
		}
		current, _ := a.model(svc.registry)
		return printModels(cmd.OutOrStdout(), svc.registry, modelsProviderFlag, current)
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsProviderFlag, "provider", "p", "", "Only list models of this provider")
}

// printModels writes the registry as a table. The default model is marked
// with "*".
func printModels(out io.Writer, reg *models.Registry, provider, current string) error {
	providers := reg.Providers()
	if provider != "" {
		providers = nil
		for _, p := range reg.Providers() {
			if strings.EqualFold(p, provider) {
				providers = append(providers, p)
			}
		}
		if len(providers) == 0 {
			return fmt.Errorf("unknown provider %q (have: %s)", provider, strings.Join(reg.Providers(), ", "))
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MODEL\tPROVIDER\tCONTEXT\tINPUT\tSTREAM\tPROMPT\tCOMPLETION")
	_, _ = fmt.Fprintln(w, "-----\t--------\t-------\t-----\t------\t------\t----------")

	for _, p := range providers {
		for _, id := range reg.ModelsFor(p) {
			m, _ := reg.Get(id)
			name := id
			if id == current {
				name += " *"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				name, p, humanize.Comma(int64(m.MaxContext)), m.Capability,
				yesNo(m.StreamSupported), formatPrice(m.Cost.Prompt), formatPrice(m.Cost.Completion))
		}
	}
	return w.Flush()
}

// formatPrice shows a price per million tokens.
func formatPrice(p models.Price) string {
	if p.Unit <= 0 {
		return "-"
	}
	return fmt.Sprintf("$%.2f/M", p.Price*1e6/float64(p.Unit))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
