package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/cmcs/internal/cryptox"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/netx"
	"github.com/dmitrijs2005/cmcs/internal/server/config"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/services"
	"github.com/dmitrijs2005/cmcs/internal/shared"
)

func (a *App) keygen(_ context.Context, args []string) error {
	if err := parse(a.flagSet("keygen"), args); err != nil {
		return err
	}
	key, err := cryptox.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, key)
	return nil
}

func (a *App) hashPassword(_ context.Context, args []string) error {
	if err := parse(a.flagSet("hash-password"), args); err != nil {
		return err
	}

	pw, err := a.newPassword()
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	hash, err := cryptox.HashPassword(string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, hash)
	return nil
}

// newPassword prompts twice and requires both entries to match.
func (a *App) newPassword() ([]byte, error) {
	pw, err := GetSecret(a.stderr, "Enter password")
	if err != nil {
		return nil, err
	}
	again, err := GetSecret(a.stderr, "Repeat password")
	if err != nil {
		shared.WipeByteArray(pw)
		return nil, err
	}
	defer shared.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		shared.WipeByteArray(pw)
		return nil, fmt.Errorf("passwords do not match")
	}
	return pw, nil
}

func (a *App) addUser(ctx context.Context, args []string) error {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	fs := a.flagSet("adduser")
	dsn := fs.String("d", "", "database DSN (default $"+config.EnvDatabaseDSN+")")
	email := fs.String("email", "", "login email")
	name := fs.String("name", "", "display name")
	role := fs.String("role", string(models.RoleLecturer), "Lecturer, Coordinator, Manager or HR")
	rate := fs.Float64("rate", 0, "hourly rate (lecturers)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}

	if *dsn == "" {
		*dsn = getenv(config.EnvDatabaseDSN)
	}
	if *dsn == "" {
		*dsn = defaults.DatabaseDSN
	}

	pw, err := a.newPassword()
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	db, err := openDB(*dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	m := newRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("db migration error: %w", err)
	}

	us := services.NewUserService(db, m, "", 0)
	user, err := us.Register(ctx, services.RegisterInput{
		Email:      *email,
		Name:       *name,
		Role:       models.Role(*role),
		Password:   string(pw),
		HourlyRate: *rate,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func (a *App) decrypt(ctx context.Context, args []string) error {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	uploads := defaults.UploadsDir
	if v := getenv(config.EnvUploadsDir); v != "" {
		uploads = v
	}

	fs := a.flagSet("decrypt")
	dir := fs.String("dir", uploads, "uploads directory")
	name := fs.String("name", "", "stored file name (<32 hex>.bin)")
	out := fs.String("out", "", "output path for the plaintext")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("name", *name); err != nil {
		return err
	}
	if err := required("out", *out); err != nil {
		return err
	}

	encoded := getenv(config.EnvCryptoKey)
	if encoded == "" {
		b, err := GetSecret(a.stderr, "Enter encryption key")
		if err != nil {
			return err
		}
		encoded = string(b)
		shared.WipeByteArray(b)
	}

	key, err := cryptox.DecodeKey(encoded)
	if err != nil {
		return err
	}
	store, err := docstore.New(key, *dir)
	shared.WipeByteArray(key)
	if err != nil {
		return err
	}

	if err := store.DecryptTo(ctx, *name, *out); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "decrypted %s to %s\n", *name, *out)
	return nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	fs := a.flagSet("upload")
	server := fs.String("server", "http://localhost:8080", "API base URL")
	email := fs.String("email", "", "login email")
	claimID := fs.String("claim", "", "claim id")
	path := fs.String("file", "", "file to upload")
	timeout := fs.Duration("timeout", time.Minute, "request timeout")
	if err := parse(fs, args); err != nil {
		return err
	}
	for _, f := range []struct{ name, value string }{{"email", *email}, {"claim", *claimID}, {"file", *path}} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}

	pw, err := GetSecret(a.stderr, "Enter password")
	if err != nil {
		return err
	}
	password := string(pw)
	shared.WipeByteArray(pw)

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client := netx.NewClient(*server, nil)
	token, err := client.Login(ctx, *email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	body, err := client.UploadDocument(ctx, token, *claimID, *path)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") != nil {
		pretty.Reset()
		pretty.Write(body)
	}
	fmt.Fprintln(a.stdout, pretty.String())
	return nil
}
