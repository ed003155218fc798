package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danthegoodman1/fedb/datasource"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ErrExportTarget = errors.New("exactly one of --out or --s3-prefix is required")

var exportCmd = &cobra.Command{
	Use:   "export <table>",
	Short: "Write a table as parquet to a file or the configured S3 bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("out", "", "Local file to write")
	exportCmd.Flags().String("s3-prefix", "", "Key prefix to upload under")
}

func runExport(cmd *cobra.Command, args []string) error {
	out, prefix, err := exportTarget(v)
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), configFromViper(v))
	if err != nil {
		return err
	}
	defer app.Shutdown()

	t, err := app.DB.GetTable(args[0])
	if err != nil {
		return err
	}

	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("error in os.Create: %w", err)
		}
		defer f.Close()
		if err := datasource.WriteParquet(f, t); err != nil {
			return err
		}
		logger.Info().Str("table", t.Name()).Str("file", out).Msg("exported table")
		return nil
	}

	key, err := datasource.ExportToS3(cmd.Context(), prefix, t)
	if err != nil {
		return err
	}
	logger.Info().Str("table", t.Name()).Str("key", key).Msg("exported table")
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

// exportTarget returns the file to write, or the S3 prefix when out is empty.
// Either may come from a flag or from FEDB_OUT / FEDB_S3_PREFIX.
func exportTarget(cfg *viper.Viper) (out, prefix string, err error) {
	out, prefix = cfg.GetString("out"), cfg.GetString("s3-prefix")
	if (out == "") == !cfg.IsSet("s3-prefix") {
		return "", "", ErrExportTarget
	}
	return out, prefix, nil
}
