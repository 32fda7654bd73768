package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/shule/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status|version [ARGS] - run database migrations")
	fmt.Println("  addsuperuser -name NAME -email EMAIL - create a superadmin account; the password will be prompted")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password; the password will be prompted")
	fmt.Println("  grantfeatures -email EMAIL -features F1,F2,... - replace a teacher's feature allow-list")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSuperUserCmd := flag.NewFlagSet("addsuperuser", flag.ExitOnError)
	addSuperUserName := addSuperUserCmd.String("name", "", "The user's full name.")
	addSuperUserEmail := addSuperUserCmd.String("email", "", "The user's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	grantFeaturesCmd := flag.NewFlagSet("grantfeatures", flag.ExitOnError)
	grantFeaturesEmail := grantFeaturesCmd.String("email", "", "The teacher's email.")
	grantFeaturesList := grantFeaturesCmd.String("features", "", "Comma-separated feature ids.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addsuperuser":
		if err := addSuperUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSuperUserName == "" || *addSuperUserEmail == "" {
			addSuperUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addSuperUserCmd.Usage()
			return errHelp
		}
		return cli.addSuperUser(*addSuperUserName, *addSuperUserEmail, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "grantfeatures":
		if err := grantFeaturesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantFeaturesEmail == "" || *grantFeaturesList == "" {
			grantFeaturesCmd.Usage()
			return errHelp
		}
		return cli.grantFeatures(*grantFeaturesEmail, strings.Split(*grantFeaturesList, ","))

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
