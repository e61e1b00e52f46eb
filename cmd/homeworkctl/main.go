package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/database"
	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
	"github.com/noah-isme/homework-assistant-api/internal/service"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "homeworkctl",
		Short:        "Operator tasks for the homework assistant database",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("database-url", "", "Database DSN (or set HOMEWORK_DATABASE_URL / DATABASE_URL)")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd(), migrateRolesCmd(), addUserCmd(), listUsersCmd(), assignMissingCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open(cmd)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func migrateRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-roles",
		Short: "Convert users.role to the userrole enum (PostgreSQL only)",
		Long: "Convert users.role to the userrole enum (PostgreSQL only).\n" +
			"migrate creates the enum and converts the column as well; this command converts\n" +
			"the column alone, in any order relative to migrate.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open(cmd)
			if err != nil {
				return err
			}
			if err := database.MigrateRoles(db); err != nil {
				return fmt.Errorf("migrate roles: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "users.role now uses userrole")
			return nil
		},
	}
}

func addUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Register a teacher or student account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, logger, err := open(cmd)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			name, _ := f.GetString("name")
			email, _ := f.GetString("email")
			password, _ := f.GetString("password")
			role, _ := f.GetString("role")

			validate := validator.New(validator.WithRequiredStructEnabled())
			auth := service.NewAuthService(repository.NewUserRepository(db), validate, service.AuthConfig{}, logger)
			user, err := auth.Register(cmd.Context(), dto.RegisterRequest{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("add user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s %d <%s>\n", user.Role, user.ID, user.Email)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("name", "", "Display name")
	f.String("email", "", "Login email")
	f.String("password", "", "Initial password")
	f.String("role", "student", "teacher or student")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func listUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List accounts holding a role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open(cmd)
			if err != nil {
				return err
			}

			raw, _ := cmd.Flags().GetString("role")
			role, ok := models.ParseRole(raw)
			if !ok {
				return fmt.Errorf("unknown role %q", raw)
			}

			users := repository.NewUserRepository(db)
			matched, err := users.ListByRole(cmd.Context(), role)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			total, err := users.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count users: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, user := range matched {
				fmt.Fprintf(out, "%d\t%s\t%s\n", user.ID, user.Email, user.Name)
			}
			fmt.Fprintf(out, "%d of %d users are %ss\n", len(matched), total, role)
			return nil
		},
	}

	cmd.Flags().String("role", "student", "teacher or student")
	return cmd
}

func assignMissingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign-missing",
		Short: "Create pending records for students registered after a homework was assigned",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, logger, err := open(cmd)
			if err != nil {
				return err
			}

			homeworkID, _ := cmd.Flags().GetUint("homework-id")
			validate := validator.New(validator.WithRequiredStructEnabled())
			assignments := service.NewAssignmentService(repository.NewHomeworkRepository(db), validate, nil, logger)

			created, err := assignments.AssignMissing(cmd.Context(), homeworkID)
			if err != nil {
				return fmt.Errorf("assign missing: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "assigned homework %d to %d new students\n", homeworkID, created)
			return nil
		},
	}

	cmd.Flags().Uint("homework-id", 0, "Homework to backfill")
	_ = cmd.MarkFlagRequired("homework-id")

	return cmd
}

// open resolves the DSN from flags or environment and connects.
func open(cmd *cobra.Command) (*gorm.DB, zerolog.Logger, error) {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	_ = v.BindEnv("database-url", "HOMEWORK_DATABASE_URL", "DATABASE_URL")

	logger := newLogger(cmd, v.GetString("log-level"))

	dsn := strings.TrimSpace(v.GetString("database-url"))
	if dsn == "" {
		return nil, logger, fmt.Errorf("database url is required")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		return nil, logger, err
	}

	return db, logger, nil
}

func newLogger(cmd *cobra.Command, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(parsed).
		With().Timestamp().Str("component", "homeworkctl").Logger()
}
