package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"outfitted/internal/repository/postgres"
	"outfitted/internal/service"
)

// superuserPasswordEnv is read when --password is not given.
const superuserPasswordEnv = "MANAGE_SUPERUSER_PASSWORD"

var superuser service.NewUser

// createSuperuserCmd creates an account with staff and superuser rights.
var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff superuser account",
	Long: `Create an account with is_staff and is_superuser set.

The password is taken from --password or, when omitted, from the
MANAGE_SUPERUSER_PASSWORD environment variable. Without either, the
account gets an unusable password and cannot log in.`,
	Args: cobra.NoArgs,
	RunE: runCreateSuperuser,
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuser.Email, "email", "", "Email address (required)")
	createSuperuserCmd.Flags().StringVar(&superuser.FirstName, "first-name", "", "First name")
	createSuperuserCmd.Flags().StringVar(&superuser.Surname, "surname", "", "Surname")
	createSuperuserCmd.Flags().StringVar(&superuser.Password, "password", "", "Password (or set "+superuserPasswordEnv+")")
	_ = createSuperuserCmd.MarkFlagRequired("email")
}

func runCreateSuperuser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	in := superuser
	if in.Password == "" {
		in.Password = os.Getenv(superuserPasswordEnv)
	}

	users := service.NewUserService(postgres.NewUserPostgres(db), postgres.NewTokenPostgres(db))
	u, err := users.CreateSuperuser(ctx, in)
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}

	log.Info("superuser created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	fmt.Fprintf(cmd.OutOrStdout(), "Superuser created successfully: %s\n", u.Email)
	return nil
}
