package cmd

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/illarion/safelist/internal/vault"
)

// Ls shows groups and their sites. With a group name only that group is listed.
func Ls(_ context.Context, a *App, group string) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	v, err := sl.Vault()
	if err != nil {
		return err
	}

	names := v.GroupNames()
	if group != "" {
		if v.FindGroup(group) == nil {
			return fmt.Errorf("group %q: %w", group, vault.ErrNotFound)
		}
		names = []string{group}
	}
	if len(names) == 0 {
		fmt.Fprintln(a.Out, dimStyle.Render("No groups yet. Use 'safelist add-group <name>'"))
		return nil
	}

	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(a.Out)
		}
		seq, err := v.GroupSites(name)
		if err != nil {
			return err
		}
		renderGroup(a, name, seq)
	}

	summary := fmt.Sprintf("%d group(s), %d site(s)", len(v.Favorites), v.SiteCount())
	if modified, err := sl.Modified(); err == nil {
		summary += ", last saved " + modified.Format(time.RFC3339)
	} else {
		a.Log.Debug("modification time unavailable", zap.Error(err))
	}
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, dimStyle.Render(summary))
	return nil
}

func renderGroup(a *App, name string, sites iter.Seq[vault.Listing]) {
	fmt.Fprintln(a.Out, groupStyle.Render(name))

	empty := true
	for l := range sites {
		empty = false
		var line strings.Builder
		line.WriteString("  ")
		line.WriteString(indexStyle.Render(fmt.Sprintf("%d.", l.Index+1)))
		line.WriteString(" ")
		line.WriteString(l.URL)
		if l.Identifier != nil {
			line.WriteString(" ")
			line.WriteString(identStyle.Render(*l.Identifier))
		}
		if l.HasSecret {
			line.WriteString(" ")
			line.WriteString(secretStyle.Render("[password]"))
		}
		fmt.Fprintln(a.Out, line.String())
	}
	if empty {
		fmt.Fprintln(a.Out, "  "+dimStyle.Render("(empty)"))
	}
}
