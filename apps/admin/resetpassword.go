package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/classcheck/classcheck/core/user"
)

// resetPassword sets a new password on an existing account.
func resetPassword(args []string, out io.Writer, svc *user.Service) error {
	fs := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	email := fs.String("email", "", "account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	usr, err := svc.GetByEmail(ctx, *email)
	if err != nil {
		return err
	}

	pwd, err := promptPassword(out)
	if err != nil {
		return err
	}
	if err := svc.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	fmt.Fprintf(out, "password updated for %s\n", usr.Email)
	return nil
}
