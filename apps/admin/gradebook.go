package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/roster"
)

var errNotConfirmed = errors.New("import replaces the current data: pass -yes to confirm")

func (cli *commandLine) export(ctx context.Context, out string) error {
	if filepath.Ext(out) == "" {
		out += gradebook.Extension
	}

	doc, err := cli.gradebookSvc.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding gradebook")
	}
	if err = os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrap(err, "writing gradebook")
	}

	fmt.Fprintf(cli.out, "Gradebook exported to %s\n", out)
	return nil
}

func (cli *commandLine) importGradebook(ctx context.Context, in string, yes bool) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(err, "reading gradebook")
	}
	doc, err := gradebook.Decode(data)
	if err != nil {
		return err
	}

	if !yes {
		if !stdinIsTerminal() {
			return errNotConfirmed
		}
		fmt.Fprint(cli.out, "This replaces the current gradebook. Continue? [y/N] ")
		answer, _ := bufio.NewReader(cli.in).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return errNotConfirmed
		}
	}

	res, err := cli.gradebookSvc.Import(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Imported version %s: %s\n", res.Version, strings.Join(res.Imported, ", "))
	return nil
}

func (cli *commandLine) importRoster(ctx context.Context, file, group string) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer func() { _ = f.Close() }()

	res, err := cli.importer.ImportFile(ctx, filepath.Base(file), f, roster.Options{Group: group})
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Imported %d of %d students (%d skipped)\n", res.Imported, res.Total, res.Skipped)
	for _, re := range res.Errors {
		if re.Name != "" {
			fmt.Fprintf(cli.out, "  row %d (%s): %s\n", re.Row, re.Name, re.Reason)
		} else {
			fmt.Fprintf(cli.out, "  row %d: %s\n", re.Row, re.Reason)
		}
	}
	return nil
}
