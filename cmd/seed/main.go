// seed loads a YAML fixture of units, residents and resident accounts,
// creating the administrator it acts as when needed.
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
	utils.InitLogger("condo-seed")
	config.LoadDotEnv()

	db := config.DatabaseFromEnv()
	path := "fixtures/seed.yaml"
	cost := 10

	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	db.AddFlags(fs)
	fs.StringVarP(&path, "file", "f", path, "fixture file")
	fs.IntVar(&cost, "bcrypt-cost", cost, "bcrypt cost for seeded passwords")
	if err := fs.Parse(args); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	fixture, err := parseFixture(file)
	file.Close()
	if err != nil {
		return err
	}

	conn, err := database.Open(db.User, db.Pass, db.Host, db.Port, db.Name)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a := app.New(conn, cost, nil)
	sum, err := apply(ctx, a.Records, a.Accounts, fixture)
	if err != nil {
		return err
	}
	utils.Logger.WithField("units", sum.Units).
		WithField("residents", sum.Residents).
		WithField("accounts", sum.Accounts).
		Info("seed complete")
	return nil
}
