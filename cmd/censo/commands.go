package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/censoparroquial/censo/internal/database"
	"github.com/censoparroquial/censo/internal/database/seed"
	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/repository"
	"github.com/censoparroquial/censo/internal/services/survey"
)

func newSurveyCmd(opts *globalOptions) *cobra.Command {
	var surveyID string

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Start the survey wizard",
		Long: `Start the survey wizard. Without --id the saved draft is resumed, or a
new survey is started. With --id the survey is fetched from the backend and
edited in place; edits are not autosaved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey(cmd.Context(), opts, surveyID)
		},
	}
	cmd.Flags().StringVar(&surveyID, "id", "", "Identifier of an existing survey to edit")

	return cmd
}

func newDraftCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or discard the locally saved draft",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a summary of the saved draft and safety copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			codec, err := survey.NewCodec(models.DefaultStages())
			if err != nil {
				return err
			}
			drafts := repository.NewDraftRepository(e.db.DB)
			out := cmd.OutOrStdout()

			infos, err := drafts.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No hay borradores guardados.")
				return nil
			}

			for _, info := range infos {
				blob, found, err := drafts.Load(cmd.Context(), info.Key)
				if err != nil {
					return err
				}
				if !found {
					continue
				}
				snap, err := codec.Decode(blob)
				if err != nil {
					fmt.Fprintf(out, "%s: ilegible (%v)\n", info.Key, err)
					continue
				}
				printSnapshot(cmd, info, snap)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved draft and safety copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			drafts := repository.NewDraftRepository(e.db.DB)
			for _, key := range []string{survey.DraftKey, survey.CompletedKey} {
				if err := drafts.Delete(cmd.Context(), key); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Borrador eliminado.")
			return nil
		},
	}

	cmd.AddCommand(showCmd, clearCmd)
	return cmd
}

func printSnapshot(cmd *cobra.Command, info repository.DraftInfo, snap survey.Snapshot) {
	stages := models.DefaultStages()
	stage := stages[snap.Stage-1]

	answered, total := 0, 0
	for _, st := range stages {
		for _, f := range st.Fields {
			total++
			if !snap.State.Get(f.ID).IsEmpty() {
				answered++
			}
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Clave:\t%s\n", info.Key)
	fmt.Fprintf(w, "Etapa:\t%d/%d %s\n", stage.ID, len(stages), stage.Title)
	fmt.Fprintf(w, "Respuestas:\t%d de %d\n", answered, total)
	fmt.Fprintf(w, "Familia:\t%d\n", len(snap.Family))
	fmt.Fprintf(w, "Difuntos:\t%d\n", len(snap.Deceased))
	fmt.Fprintf(w, "Completado:\t%t\n", snap.Completed)
	if !snap.SavedAt.IsZero() {
		fmt.Fprintf(w, "Guardado:\t%s\n", snap.SavedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintln(w)
	w.Flush()
}

func newCatalogCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the offline catalog cache",
	}

	var force bool
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the catalog cache with demo options for offline use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			cache := repository.NewCatalogRepository(e.db.DB)

			// Check if catalogs already exist
			counts, err := cache.CountByCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if len(counts) > 0 && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "La caché ya contiene %d catálogos; use --force para reemplazarlos.\n", len(counts))
				return nil
			}

			written, err := seed.NewGenerator(cache, seed.DefaultConfig()).Generate(cmd.Context())
			if err != nil {
				return fmt.Errorf("generating seed catalogs: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d opciones escritas.\n", written)
			return nil
		},
	}
	seedCmd.Flags().BoolVar(&force, "force", false, "Replace catalogs already in the cache")

	var (
		parent string
		page   models.Pagination
	)
	showCmd := &cobra.Command{
		Use:   "show [catalog]",
		Short: "List cached catalogs, or the options of one catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			cache := repository.NewCatalogRepository(e.db.DB)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			if len(args) == 0 {
				counts, err := cache.CountByCatalog(cmd.Context())
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(counts))
				for k := range counts {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Fprintln(w, "CATÁLOGO\tOPCIONES")
				for _, k := range keys {
					fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
				}
				return nil
			}

			list, err := cache.ListOptions(cmd.Context(), args[0], parent, page)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "VALOR\tETIQUETA")
			for _, opt := range list.Options {
				fmt.Fprintf(w, "%s\t%s\n", opt.Value, opt.Label)
			}
			fmt.Fprintf(w, "\nPágina %d de %d (%d opciones)\n", list.Page, list.TotalPages, list.Total)
			return nil
		},
	}
	defaults := models.DefaultPagination()
	showCmd.Flags().StringVar(&parent, "parent", "", "Parent value of a dependent catalog")
	showCmd.Flags().IntVar(&page.Page, "page", defaults.Page, "Page number")
	showCmd.Flags().IntVar(&page.PageSize, "page-size", defaults.PageSize, "Options per page")

	cmd.AddCommand(seedCmd, showCmd)
	return cmd
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	var down, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or list local store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if down && status {
				return fmt.Errorf("--down and --status are mutually exclusive")
			}

			e, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			migrator, err := database.NewMigrator(e.db)
			if err != nil {
				return fmt.Errorf("creating migrator: %w", err)
			}
			out := cmd.OutOrStdout()

			switch {
			case status:
				migrations, err := migrator.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSIÓN\tDESCRIPCIÓN\tAPLICADA")
				for _, m := range migrations {
					applied := "no"
					if m.Applied {
						applied = m.AppliedAt.Local().Format(time.DateTime)
					}
					fmt.Fprintf(w, "%03d\t%s\t%s\n", m.Version, m.Description, applied)
				}
				return w.Flush()
			case down:
				result, err := migrator.MigrateDown(cmd.Context())
				if err != nil {
					return fmt.Errorf("rolling back migration: %w", err)
				}
				fmt.Fprintf(out, "Versión actual: %d\n", result.TargetVersion)
				return nil
			default:
				result, err := migrator.MigrateUp(cmd.Context())
				if err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				fmt.Fprintf(out, "%d migraciones aplicadas; versión actual: %d\n", len(result.Applied), result.TargetVersion)
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "List migrations and whether they are applied")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "censo version %s (built %s)\n", Version, BuildTime)
		},
	}
}
