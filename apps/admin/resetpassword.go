package main

import (
	"context"

	"github.com/pkg/errors"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return errors.Wrap(err, "setting password")
}
