package main

import (
	"context"

	"github.com/azizzt/controlescolar/core"
)

// resetPassword applies the password policy before storing the new password.
func (cli *commandLine) resetPassword(uname, pwd string) error {
	return cli.usrSvc.ResetPassword(context.Background(), core.CleanString(uname, true /* lower */), pwd)
}
