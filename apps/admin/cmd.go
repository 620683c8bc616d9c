package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/edulead/core/scoring"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out    io.Writer
	scorer *scoring.Scorer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  hashpassword - print the bcrypt hash of a password, for ADMIN_PASSWORDHASH")
	_, _ = fmt.Fprintln(cli.out, "  score -interest INTEREST [-degree DEGREE] [-timeline TIMELINE] [-comments COMMENTS] - preview a lead score")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	scoreCmd := flag.NewFlagSet("score", flag.ContinueOnError)
	scoreCmd.SetOutput(cli.out)
	scoreInterest := scoreCmd.String("interest", "", "The field of interest, e.g. data-science.")
	scoreDegree := scoreCmd.String("degree", "", "The degree level, e.g. masters.")
	scoreTimeline := scoreCmd.String("timeline", "", "The start timeline, e.g. 1-3months.")
	scoreComments := scoreCmd.String("comments", "", "Free text comments.")

	switch args[1] {
	case "hashpassword":
		_, _ = fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		_, _ = fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	case "score":
		if err := scoreCmd.Parse(args[2:]); err != nil {
			if err == flag.ErrHelp {
				return errHelp
			}
			return err
		}
		if *scoreInterest == "" {
			scoreCmd.Usage()
			return errHelp
		}
		return cli.score(scoring.Input{
			Interest:    *scoreInterest,
			DegreeLevel: *scoreDegree,
			Timeline:    *scoreTimeline,
			Comments:    *scoreComments,
		})
	default:
		cli.printUsage()
		return errHelp
	}
}
