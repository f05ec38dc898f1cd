package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin, isInstructor bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		if !core.IsNotFound(err) {
			return errors.Wrap(err, "finding user")
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Username:     uname,
			Email:        email,
			Password:     pwd,
			IsInstructor: isInstructor,
			IsAdmin:      isAdmin,
		})
		return errors.Wrap(err, "creating user")
	}

	active := true
	uu := user.UpdateUser{
		Password:     &pwd,
		IsInstructor: &isInstructor,
		IsAdmin:      &isAdmin,
		IsActive:     &active,
	}
	if email != "" {
		uu.Email = &email
	}
	_, err = cli.usrSvc.Update(ctx, usr, uu)
	return errors.Wrap(err, "updating user")
}
