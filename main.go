package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danthegoodman1/fedb/gologger"
	"github.com/danthegoodman1/fedb/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logger = gologger.NewLogger()
	v      = newViper()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fedb",
	Short: "In-memory relational query engine",
	Long:  `Load typed tables from a manifest and query them over HTTP or from the command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return v.BindPFlags(cmd.Flags())
	},
	SilenceUsage: true,
}

// newViper reads every flag key from FEDB_* env as a fallback, dashes becoming
// underscores.
func newViper() *viper.Viper {
	nv := viper.New()
	nv.SetEnvPrefix("FEDB")
	nv.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	nv.AutomaticEnv()
	return nv
}

func init() {
	rootCmd.PersistentFlags().String("manifest", "", "Path to the table manifest")
	rootCmd.PersistentFlags().Int("workers", 64, "Size of the query delivery pool")
	rootCmd.PersistentFlags().String("crdb-dsn", utils.CRDB_DSN, "DSN for postgres table sources")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
}
