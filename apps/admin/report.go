package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

func (cli *commandLine) leaderboard(ctx context.Context, group string) error {
	entries, err := cli.progressSvc.Leaderboard(ctx, group)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cli.out, "No students")
		return nil
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tGROUP\tOVERALL\tGRADE\tTARGET\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d%%\t%s\t%s\t%s\n",
			e.Rank, e.Name, e.Group, e.OverallPct, e.OverallGrade, e.TargetGrade, e.TargetStatus)
	}
	return w.Flush()
}

func (cli *commandLine) remind(ctx context.Context, window time.Duration) error {
	sent, err := cli.reminder.Send(ctx, core.NowFunc().UTC(), window)
	if err != nil {
		return err
	}
	if len(sent) == 0 {
		fmt.Fprintln(cli.out, "No upcoming deadlines, nothing sent")
		return nil
	}

	fmt.Fprintf(cli.out, "Reminder sent to %s:\n", cli.conf.TeacherEmail)
	for _, d := range sent {
		fmt.Fprintf(cli.out, "  %s  %s\n", d.DueDate.Format("Mon 2 Jan 2006"), d.Title)
	}
	return nil
}
