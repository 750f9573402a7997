package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	devenv "telenetapi/dev/env"
	"telenetapi/lib/usagestore"

	_ "modernc.org/sqlite"
)

const configTemplate = `{
  username: "",
  password: "",
  language: "en",
}
`

func createDb(ctx context.Context) error {
	dbPath, err := devenv.UsageDBPath()
	if err != nil {
		return err
	}

	_, err = os.Stat(dbPath)
	if err == nil {
		fmt.Println("database already created at", dbPath)
		return nil
	}

	fmt.Println("creating database at", dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = usagestore.NewStore(ctx, db)
	return err
}

func createConfig() error {
	configPath, err := devenv.GetStateFilePath(devenv.LiveConfigFile)
	if err != nil {
		return err
	}
	_, err = os.Stat(configPath)
	if err == nil {
		return nil
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0600)
}

func create(ctx context.Context, recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		dir, err := devenv.StateDir()
		if err != nil {
			return err
		}
		err = os.RemoveAll(dir)
		if err != nil {
			return err
		}
	}
	err = createDb(ctx)
	if err != nil {
		return err
	}
	err = createConfig()
	if err != nil {
		return err
	}

	slog.Info("fill in dev/.state/telenet.json5 to run the tests against the live portal.")
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(context.Background(), *recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
