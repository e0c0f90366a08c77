// create-admin registers an administrator account directly in the
// database.  It is the only way to create the first administrator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/condo-manager/internal/app"
	"github.com/iliyamo/condo-manager/internal/config"
	"github.com/iliyamo/condo-manager/internal/database"
	"github.com/iliyamo/condo-manager/internal/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	utils.InitLogger("condo-create-admin")
	config.LoadDotEnv()

	db := config.DatabaseFromEnv()
	var login, email, password string
	cost := 12

	fs := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	db.AddFlags(fs)
	fs.StringVar(&login, "login", "", "login name (required)")
	fs.StringVar(&email, "email", "", "contact e-mail (required)")
	fs.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "password; defaults to $ADMIN_PASSWORD")
	fs.IntVar(&cost, "bcrypt-cost", cost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if login == "" || email == "" || password == "" {
		fs.PrintDefaults()
		return errors.New("--login, --email and a password are required")
	}

	conn, err := database.Open(db.User, db.Pass, db.Host, db.Port, db.Name)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := app.New(conn, cost, nil).Records.BootstrapAdmin(ctx, login, email, password)
	if err != nil {
		return err
	}
	utils.Logger.WithField("account_id", a.ID).WithField("login", a.Login).Info("administrator created")
	return nil
}
