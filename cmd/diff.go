package cmd

import (
	"context"
	"fmt"
	"strings"
)

// Diff compares the vault with a backup file
func Diff(_ context.Context, a *App, path string) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	other, err := a.readBackup(path, s.password)
	if err != nil {
		return err
	}

	out, err := sl.Diff(other, path)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintln(a.Out, "No differences")
		return nil
	}

	for _, line := range strings.SplitAfter(out, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(a.Out, line)
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(a.Out, okStyle.Render(strings.TrimSuffix(line, "\n"))+"\n")
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(a.Out, errStyle.UnsetBold().Render(strings.TrimSuffix(line, "\n"))+"\n")
		default:
			fmt.Fprint(a.Out, line)
		}
	}
	return nil
}
