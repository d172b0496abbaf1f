package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"claimintake/internal/config"
)

// claimsTable is the table owned by the migrations in db/migrations.
const claimsTable = "claims"

const usage = "Usage: migrate [up|down --yes|steps N|force V|version]"

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
}

type command struct {
	name string
	n    int
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}
	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "version":
		return cmd, nil
	case "down":
		// Reverting every migration drops the claims table and all submitted claims.
		if len(args) < 2 || args[1] != "--yes" {
			return command{}, fmt.Errorf("down drops the %s table; rerun as 'down --yes'", claimsTable)
		}
		return cmd, nil
	case "steps", "force":
		if len(args) < 2 {
			return command{}, fmt.Errorf("%s requires a number argument", cmd.name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid %s argument: %w", cmd.name, err)
		}
		if cmd.name == "force" && n < 0 {
			return command{}, fmt.Errorf("force version must not be negative, got %d", n)
		}
		cmd.n = n
		return cmd, nil
	default:
		return command{}, fmt.Errorf("unknown command: %s", cmd.name)
	}
}

func execute(m migrator, cmd command) error {
	var err error
	switch cmd.name {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(cmd.n)
	case "force":
		err = m.Force(cmd.n)
	case "version":
	default:
		return fmt.Errorf("unknown command: %s", cmd.name)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("%s schema already up to date", claimsTable)
	} else if err != nil {
		return fmt.Errorf("migration %s failed: %w", cmd.name, err)
	}

	status, err := schemaStatus(m)
	if err != nil {
		return err
	}
	log.Println(status)
	return nil
}

// schemaStatus describes the applied version of the claims schema.
func schemaStatus(m migrator) (string, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Sprintf("%s schema: no migrations applied", claimsTable), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	if dirty {
		return fmt.Sprintf("%s schema: version %d is dirty; fix the database and run 'force %d'", claimsTable, version, version), nil
	}
	return fmt.Sprintf("%s schema: version %d", claimsTable, version), nil
}

func main() {
	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	m, err := migrate.New("file://"+cfg.DB.MigrationsPath, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if err := execute(m, cmd); err != nil {
		log.Fatal(err)
	}
}
