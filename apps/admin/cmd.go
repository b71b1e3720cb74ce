package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/progress"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/roster"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger

	gradebookSvc gradebook.Service
	progressSvc  progress.Service
	importer     *roster.Importer
	reminder     *deadline.Reminder

	in  io.Reader
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]          - run a goose migration command (sqlite and postgres only)")
	fmt.Fprintln(cli.out, "  importroster -file F [-group G] - import students from a .csv or .xlsx roster")
	fmt.Fprintln(cli.out, "  export -out F                   - export the gradebook to F")
	fmt.Fprintln(cli.out, "  import -in F [-yes]             - replace the gradebook with the content of F")
	fmt.Fprintln(cli.out, "  leaderboard [-group G]          - print the class leaderboard")
	fmt.Fprintln(cli.out, "  remind [-days N]                - email the teacher the upcoming deadlines")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps the -h flag to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate up|up-by-one|up-to V|down|down-to V|redo|reset|status|version")
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "importroster":
		cmd := cli.newFlagSet("importroster")
		file := cmd.String("file", "", "The .csv or .xlsx roster to import.")
		group := cmd.String("group", "", "The group given to rows without one.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.importRoster(ctx, *file, *group)

	case "export":
		cmd := cli.newFlagSet("export")
		out := cmd.String("out", "", "The file to write. "+gradebook.Extension+" is appended when missing.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *out == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *out)

	case "import":
		cmd := cli.newFlagSet("import")
		in := cmd.String("in", "", "The gradebook file to import.")
		yes := cmd.Bool("yes", false, "Replace the current data without asking.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *in == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.importGradebook(ctx, *in, *yes)

	case "leaderboard":
		cmd := cli.newFlagSet("leaderboard")
		group := cmd.String("group", "", "Only rank students of this group.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		return cli.leaderboard(ctx, *group)

	case "remind":
		cmd := cli.newFlagSet("remind")
		days := cmd.Int("days", 7, "Remind about deadlines due within this many days.")
		if err := parse(cmd, args[2:]); err != nil {
			return err
		}
		if *days <= 0 || *days > deadline.MaxWindowDays {
			cmd.Usage()
			return errHelp
		}
		return cli.remind(ctx, time.Duration(*days)*24*time.Hour)

	default:
		cli.printUsage()
		return errHelp
	}
}

func stdinIsTerminal() bool {
	return isTerminalFunc(int(os.Stdin.Fd()))
}
