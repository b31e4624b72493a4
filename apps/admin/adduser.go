package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/classcheck/classcheck/core/user"
)

func stdLogger() *stdlog.Logger {
	return stdlog.New(os.Stderr, "", stdlog.LstdFlags)
}

// addUser creates an account from flags, prompting for the password.
func addUser(args []string, out io.Writer, svc *user.Service) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	email := fs.String("email", "", "account email (required)")
	first := fs.String("first", "", "first name (required)")
	last := fs.String("last", "", "last name (required)")
	role := fs.String("role", string(user.RoleAdmin), "role: ADMIN, TEACHER or STUDENT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pwd, err := promptPassword(out)
	if err != nil {
		return err
	}

	usr, err := svc.Create(context.Background(), user.NewUser{
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		Role:      user.Role(*role),
		Password:  pwd,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s account %s (%s)\n", usr.Role, usr.Email, usr.ID)
	return nil
}

func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	pwd, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", errors.Wrap(err, "reading confirmation")
	}

	if string(pwd) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(pwd), nil
}
