package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/checks"
	"github.com/user/isoaudit/pkg/engine"
)

var checksProfilesDir string

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the registered check categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := checksProfilesDir
		if dir == "" {
			dir = appConfig.ProfilesDir
		}
		var profiles []*checks.Profile
		if dir != "" {
			var err error
			if profiles, err = checks.LoadProfiles(dir); err != nil {
				return fmt.Errorf("loading profiles: %w", err)
			}
		}
		reg, sections, err := checks.NewRegistry(checks.Options{Thresholds: appConfig.Thresholds}, profiles...)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tSECTION\tREFERENCE")
		reg.ForEach(func(category string, c engine.Check) bool {
			section, ok := sections.Section(category)
			if !ok {
				section = "(overall only)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", category, section, c.Reference())
			return true
		})
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nScored sections: %s\n", strings.Join(sections.Sections(), ", "))
		return nil
	},
}

func init() {
	checksCmd.Flags().StringVar(&checksProfilesDir, "profiles", "", "Directory of custom YAML control profiles")
	rootCmd.AddCommand(checksCmd)
}
