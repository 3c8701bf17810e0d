package cmd

import (
	"context"
	"fmt"
)

// AddGroup creates an empty favorite group
func AddGroup(_ context.Context, a *App, name string) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	if err := sl.AddGroup(name); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Added group %q", name))
	return nil
}

// RemoveGroup deletes a group with all its sites, after confirmation
// unless force is set
func RemoveGroup(_ context.Context, a *App, name string, force bool) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	seq, err := sl.GroupSites(name)
	if err != nil {
		return err
	}
	count := 0
	for range seq {
		count++
	}
	if count > 0 && !force {
		if !confirm(a.Prompt, fmt.Sprintf("Group %q has %d site(s). Remove it?", name, count)) {
			fmt.Fprintln(a.Out, "Aborted")
			return nil
		}
	}

	if err := sl.RemoveGroup(name); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Removed group %q", name))
	return nil
}
