package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	usrSvc     *user.Service
	profileSvc *profile.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix)")
	fmt.Println("  createadmin -email EMAIL -first-name NAME -last-name NAME -code CODE -rfc RFC - create an administrator")
	fmt.Println("  resetpassword -username EMAIL - reset user's password")
}

// readPassword prompts for a password on the terminal.
func readPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ExitOnError)
	createAdminEmail := createAdminCmd.String("email", "", "The administrator's email, also used to log in. The password will be prompted next.")
	createAdminFirst := createAdminCmd.String("first-name", "", "The administrator's first name.")
	createAdminLast := createAdminCmd.String("last-name", "", "The administrator's last name.")
	createAdminCode := createAdminCmd.String("code", "", "The administrator's code (clave_admin).")
	createAdminRFC := createAdminCmd.String("rfc", "", "The administrator's RFC.")
	createAdminPhone := createAdminCmd.String("phone", "", "The administrator's phone number.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminEmail == "" || *createAdminFirst == "" || *createAdminLast == "" || *createAdminCode == "" || *createAdminRFC == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := readPassword(createAdminCmd)
		if err != nil {
			return err
		}
		return cli.createAdmin(profile.NewAdmin{
			Credentials: user.Credentials{
				Email:     *createAdminEmail,
				Password:  pwd,
				FirstName: *createAdminFirst,
				LastName:  *createAdminLast,
			},
			AdminCode: *createAdminCode,
			RFC:       *createAdminRFC,
			Phone:     *createAdminPhone,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}
