package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/user"
	"github.com/classcheck/classcheck/services/email"
	"github.com/classcheck/classcheck/storage/database"
	"github.com/classcheck/classcheck/storage/database/sqlxrepo"
)

const usage = `Usage: admin <command> [arguments]

Commands:
	createdb                provision the database role and database
	migrate <goose-command> run migrations (up, down, status, ...)
	adduser                 create an account interactively
	resetpassword           set a new password on an existing account
	purgeinvites            delete invitations past the retention delta
`

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	switch cmd := args[0]; cmd {
	case "createdb":
		return database.CreateIfNotExist()
	case "migrate":
		if len(args) < 2 {
			return errors.New("migrate: missing goose command")
		}
		db, err := database.Open()
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(db, args[1], args[2:]...)
	case "adduser":
		svc, closeDB, err := userService()
		if err != nil {
			return err
		}
		defer closeDB()
		return addUser(args[1:], out, svc)
	case "resetpassword":
		svc, closeDB, err := userService()
		if err != nil {
			return err
		}
		defer closeDB()
		return resetPassword(args[1:], out, svc)
	case "purgeinvites":
		svc, closeDB, err := userService()
		if err != nil {
			return err
		}
		defer closeDB()
		n, err := svc.PurgeStaleInvitations(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "purged %d invitation(s)\n", n)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return errors.Errorf("unknown command %q", cmd)
	}
}

func userService() (*user.Service, func(), error) {
	db, err := database.Open()
	if err != nil {
		return nil, nil, err
	}
	lg := core.NewStdLogger(stdLogger())
	svc := user.NewService(
		sqlxrepo.NewUserRepository(db),
		sqlxrepo.NewSchoolRepository(db),
		email.NewConsoleService(),
		lg,
	)
	return svc, func() { db.Close() }, nil
}
