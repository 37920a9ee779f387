// Command adminclaims grants, revokes and lists the admin flag on users
// of the configured identity backend.
//
//	adminclaims [--env-file FILE] set <uid>
//	adminclaims [--env-file FILE] remove <uid>
//	adminclaims [--env-file FILE] list
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/BruksfildServices01/haircut-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/haircut-booking/internal/db"
	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	fbpkg "github.com/BruksfildServices01/haircut-booking/internal/firebase"
	infraIdentity "github.com/BruksfildServices01/haircut-booking/internal/infra/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/logging"
)

// openFunc builds the identity provider; the returned func releases it.
type openFunc func(ctx context.Context, envFile string) (identity.Provider, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], openProvider, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, open openFunc, stdout, stderr io.Writer) int {
	logger := logging.New("info", "text")
	logger.SetOutput(stderr)

	flagSet := pflag.NewFlagSet("adminclaims", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	envFile := flagSet.String("env-file", "", "read configuration from this env file instead of ./.env")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage(stderr, flagSet)
			return 0
		}
		return 1
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return 1
	}

	command := rest[0]
	var uid string
	switch command {
	case "set", "remove":
		if len(rest) < 2 || rest[1] == "" {
			fmt.Fprintf(stderr, "Usage: adminclaims %s <USER_UID>\n", command)
			return 1
		}
		uid = rest[1]
	case "list":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		printUsage(stderr, flagSet)
		return 1
	}

	provider, closeFn, err := open(ctx, *envFile)
	if err != nil {
		logger.WithError(err).Error("cannot open identity backend")
		return 1
	}
	defer closeFn()

	switch command {
	case "set":
		if err := provider.SetAdmin(ctx, uid, true); err != nil {
			logger.WithError(err).WithField("uid", uid).Error("error setting admin claim")
			return 1
		}
		fmt.Fprintf(stdout, "Custom claim set: isAdmin = true for user %s\n", uid)

	case "remove":
		if err := provider.SetAdmin(ctx, uid, false); err != nil {
			logger.WithError(err).WithField("uid", uid).Error("error removing admin claim")
			return 1
		}
		fmt.Fprintf(stdout, "Admin rights removed for user %s\n", uid)

	case "list":
		users, err := provider.ListUsers(ctx)
		if err != nil {
			logger.WithError(err).Error("error listing admin users")
			return 1
		}
		printAdmins(stdout, users)
	}

	return 0
}

func printAdmins(w io.Writer, users []identity.User) {
	var admins []identity.User
	for _, u := range users {
		if u.IsAdmin {
			admins = append(admins, u)
		}
	}

	if len(admins) == 0 {
		fmt.Fprintln(w, "No admin users found.")
		return
	}

	fmt.Fprintln(w, "Admin users:")
	for _, u := range admins {
		name := u.DisplayName
		if name == "" {
			name = "null"
		}
		fmt.Fprintf(w, "UID: %s, Email: %s, Name: %s\n", u.UID, u.Email, name)
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `Usage:
  adminclaims [flags] set <uid>      grant the admin flag
  adminclaims [flags] remove <uid>   revoke the admin flag
  adminclaims [flags] list           list admin users

Flags:
`)
	fmt.Fprint(w, flagSet.FlagUsages())
}

func openProvider(ctx context.Context, envFile string) (identity.Provider, func(), error) {
	cfg := config.Load()
	if envFile != "" {
		var err error
		if cfg, err = config.LoadFile(envFile); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.IdentityBackend == config.IdentityFirebase {
		app, err := fbpkg.NewApp(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		client, err := fbpkg.NewAuth(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		return infraIdentity.NewFirebaseProvider(client), func() {}, nil
	}

	db, err := dbpkg.NewDB(cfg.DBUrl)
	if err != nil {
		return nil, nil, err
	}
	provider := infraIdentity.NewLocalProvider(
		infraIdentity.NewGormUserStore(db),
		infraIdentity.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
	)
	return provider, func() {
		if err := dbpkg.Close(db); err != nil {
			logrus.WithError(err).Warn("close database")
		}
	}, nil
}
