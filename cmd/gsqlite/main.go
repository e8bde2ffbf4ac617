package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	gsqlite "github.com/vlx-data/gsqlite"
	"github.com/vlx-data/gsqlite/pkg/gri"
	"github.com/vlx-data/gsqlite/pkg/refseq"
)

var (
	dbPath     string
	unsafeMode bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gsqlite",
	Short: "CLI tool for the genomic range index and compressed storage layer",
	Long:  `A command-line interface for indexing, querying, and maintaining gsqlite-managed databases.`,
}

var indexCmd = &cobra.Command{
	Use:   "index <table> <rid-expr> <beg-expr> <end-expr>",
	Short: "Add generated columns and the composite index to a table",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		floor, _ := cmd.Flags().GetInt("floor")

		db, conn, err := openDB()
		if err != nil {
			return err
		}
		defer conn.Close()

		script, err := gri.EmitCreateGRI(args[0], args[1], args[2], args[3], floor)
		if err != nil {
			return fmt.Errorf("emit: %w", err)
		}
		if _, err := db.ExecContext(cmd.Context(), script); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
		fmt.Printf("indexed %s\n", args[0])
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <table> <rid> <beg> <end>",
	Short: "Emit and run a range-overlap query against an indexed table",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ceilingFlag, _ := cmd.Flags().GetInt("ceiling")
		hasCeiling := cmd.Flags().Changed("ceiling")

		db, conn, err := openDB()
		if err != nil {
			return err
		}
		defer conn.Close()

		opts := gri.QueryOptions{}
		if hasCeiling {
			opts.Ceiling = &ceilingFlag
		}

		beg, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("beg: %w", err)
		}
		end, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}

		sqlExpr, probe, err := gri.EmitRangeRowids(cmd.Context(), db, args[0], opts)
		if err != nil {
			if errors.Is(err, gri.ErrCeilingTooLow) {
				return &gsqlite.GError{Op: "query", Kind: gsqlite.IntegrityError, Err: gsqlite.ErrCeilingTooLow}
			}
			return fmt.Errorf("emit: %w", err)
		}
		if verbose && probe != nil {
			fmt.Printf("probed levels: %v\n", probe.LevelSlice())
		}

		rows, err := db.QueryContext(cmd.Context(), "SELECT rowid FROM "+args[0]+" WHERE rowid IN "+sqlExpr, args[1], beg, end)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()

		var results []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			results = append(results, id)
		}
		data, _ := json.Marshal(results)
		fmt.Println(string(data))
		return nil
	},
}

var refseqCmd = &cobra.Command{
	Use:   "refseq",
	Short: "Manage the reference-sequence catalog",
}

var refseqPutAssemblyCmd = &cobra.Command{
	Use:   "put-assembly <name>",
	Short: "Bulk-load a bundled assembly into _gri_refseq",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		attachedSchema, _ := cmd.Flags().GetString("attached-schema")

		db, conn, err := openDB()
		if err != nil {
			return err
		}
		defer conn.Close()

		script, err := refseq.EmitPutAssembly(args[0], attachedSchema)
		if err != nil {
			return fmt.Errorf("emit: %w", err)
		}
		if _, err := db.ExecContext(cmd.Context(), script); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
		fmt.Printf("loaded assembly %s\n", args[0])
		return nil
	},
}

var refseqGetCmd = &cobra.Command{
	Use:   "get",
	Short: "List reference sequences, optionally restricted to one assembly",
	RunE: func(cmd *cobra.Command, args []string) error {
		assembly, _ := cmd.Flags().GetString("assembly")
		attachedSchema, _ := cmd.Flags().GetString("attached-schema")

		db, conn, err := openDB()
		if err != nil {
			return err
		}
		defer conn.Close()

		byName, err := refseq.GetRefseqsByName(cmd.Context(), db, assembly, attachedSchema)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		data, _ := json.MarshalIndent(byName, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum <dest>",
	Short: "Emit and run VACUUM INTO against the compressed VFS",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, conn, err := openDB()
		if err != nil {
			return err
		}
		defer conn.Close()

		script, err := gsqlite.EmitVacuumInto(args[0], conn.Config)
		if err != nil {
			return fmt.Errorf("emit: %w", err)
		}
		if _, err := db.ExecContext(cmd.Context(), script); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
		fmt.Printf("vacuumed into %s\n", args[0])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the module version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(gsqlite.Version)
		return nil
	},
}

func openDB() (*sql.DB, *gsqlite.Connection, error) {
	if dbPath == "" {
		return nil, nil, fmt.Errorf("database path not specified")
	}
	configMap := map[string]any{"unsafe_load": unsafeMode}
	conn, err := gsqlite.Open(context.Background(), dbPath, gsqlite.OpenReadWrite|gsqlite.OpenCreate, nil, configMap)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open connection: %w", err)
	}
	return conn.DB, conn, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database file path")
	rootCmd.PersistentFlags().BoolVar(&unsafeMode, "unsafe-load", false, "Disable synchronous writes and journaling")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	indexCmd.Flags().Int("floor", -1, "Minimum bin level")

	queryCmd.Flags().Int("ceiling", 0, "Explicit ceiling level (skips probing)")

	refseqCmd.AddCommand(refseqPutAssemblyCmd, refseqGetCmd)
	refseqGetCmd.Flags().String("assembly", "", "Restrict to one assembly")
	refseqCmd.PersistentFlags().String("attached-schema", "", "Read/write _gri_refseq in an ATTACHed database under this name instead of main")

	rootCmd.AddCommand(indexCmd, queryCmd, refseqCmd, vacuumCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
