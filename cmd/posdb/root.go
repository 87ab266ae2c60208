package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"salesystem/m/internal/api"
	"salesystem/m/internal/config"
	"salesystem/m/internal/database"
	"salesystem/m/internal/logging"
	"salesystem/m/internal/migrations"
	"salesystem/m/internal/seed"
)

// NewRootCmd builds the posdb command tree.
func NewRootCmd() *cobra.Command {
	var verbosity int

	root := &cobra.Command{
		Use:   "posdb",
		Short: "Provision and query the point-of-sale database",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	root.AddCommand(newMigrateCmd(), newSampleCmd(), newQueryCmd(), newServeCmd())
	return root
}

// openStore connects using the environment configuration. The store may be
// disconnected; commands decide how to report that.
func openStore() (*database.Store, config.Config) {
	cfg := config.Load()
	return database.New(cfg), cfg
}

func newMigrateCmd() *cobra.Command {
	var withSample bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and default rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _ := openStore()
			defer store.Close()

			if !migrations.Run(store) {
				return errors.New("migration failed, see log for details")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")

			if withSample {
				n := seed.LoadSampleProducts(store)
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d sample products\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSample, "sample", false, "Also load the sample product catalog")
	return cmd
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print the built-in sample products and users as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, users := seed.SampleData()
			return writeJSON(cmd.OutOrStdout(), map[string]any{"products": products, "users": users})
		},
	}
}

func newQueryCmd() *cobra.Command {
	var isWrite bool
	cmd := &cobra.Command{
		Use:   "query SQL [ARGS...]",
		Short: "Run a parameterized statement",
		Long: `Run a single statement with ? placeholders bound to ARGS.
Statements are treated as reads unless --write is given, in which case
they are committed and the affected row count is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _ := openStore()
			defer store.Close()

			kind := database.Read
			if isWrite {
				kind = database.Write
			}
			params := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				params = append(params, a)
			}

			res := store.ExecuteQuery(kind, args[0], params...)
			switch res.Kind {
			case database.KindRows:
				return writeJSON(cmd.OutOrStdout(), res.Rows)
			case database.KindSuccess:
				fmt.Fprintf(cmd.OutOrStdout(), "ok, %d rows affected\n", res.RowsAffected)
				return nil
			default:
				return fmt.Errorf("query failed: %w", res.Err)
			}
		},
	}
	cmd.Flags().BoolVarP(&isWrite, "write", "w", false, "Run as a write statement and commit it")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg := openStore()
			defer store.Close()

			migrations.Run(store)
			handler := api.New(store, cfg.Secret)

			log.Info().Str("port", cfg.HTTPPort).Msg("POS server starting")
			return http.ListenAndServe(":"+cfg.HTTPPort, handler.Router())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
