// Package ctl implements the cmcsctl operator commands.
package ctl

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cmcs/internal/server/repositories/repomanager"
)

// ErrUsage marks command-line mistakes; main exits with status 2 on it.
var ErrUsage = errors.New("usage error")

// Seams for tests.
var (
	getenv = os.Getenv
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

const usage = `usage: cmcsctl <command> [flags]

commands:
  keygen          print a new base64 document encryption key
  hash-password   print an argon2id hash of a password
  adduser         create a user account
  decrypt         decrypt a stored document to a file
  upload          upload a document to a claim through the HTTP API
`

type App struct {
	stdout io.Writer
	stderr io.Writer
}

func NewApp(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

type command func(ctx context.Context, args []string) error

// Run dispatches args[0] to a subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return ErrUsage
	}

	commands := map[string]command{
		"keygen":        a.keygen,
		"hash-password": a.hashPassword,
		"adduser":       a.addUser,
		"decrypt":       a.decrypt,
		"upload":        a.upload,
	}

	switch args[0] {
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n\n%s", args[0], usage)
		return ErrUsage
	}
	return cmd(ctx, args[1:])
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse wraps flag errors in ErrUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	return nil
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: -%s is required", ErrUsage, name)
	}
	return nil
}
