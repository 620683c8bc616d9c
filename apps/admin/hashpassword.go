package main

import (
	"fmt"

	"github.com/trezcool/edulead/core/user"
)

// hashPassword prints the hash the API seeds its administrator with.
func (cli *commandLine) hashPassword(pwd string) error {
	var usr user.User
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cli.out, string(usr.PasswordHash))
	return err
}
