package main

import (
	"context"
	"fmt"

	"github.com/azizzt/controlescolar/core/profile"
)

func (cli *commandLine) createAdmin(na profile.NewAdmin) error {
	adm, err := cli.profileSvc.CreateAdmin(context.Background(), na)
	if err != nil {
		return err
	}
	fmt.Printf("administrator %d created (%s)\n", adm.ID, adm.User.Email)
	return nil
}
