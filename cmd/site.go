package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/vault"
)

var ErrSecretMismatch = errors.New("secret does not match")

// ParseSiteNumber converts a 1-based site number as shown by ls to an index
func ParseSiteNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: site number %q is not a number", vault.ErrValidation, s)
	}
	return n - 1, nil
}

// AddSite appends a site to group. The secret, when requested, is prompted
// twice and stored only as a hash.
func AddSite(_ context.Context, a *App, group, url string, identifier *string, withSecret bool) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	var secret *string
	if withSecret {
		raw, err := readSecretConfirm(a.Prompt, "site password")
		if err != nil {
			return err
		}
		// a blank entry means the site has no password
		if len(raw) > 0 {
			plain := string(raw)
			secret = &plain
		}
		crypto.ClearBytes(raw)
	}

	if err := sl.AddSite(group, url, identifier, secret); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Added %s to %q", url, group))
	return nil
}

// RemoveSite deletes the site at a 0-based index of group
func RemoveSite(_ context.Context, a *App, group string, index int) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	removed, err := sl.RemoveSite(group, index)
	if err != nil {
		return err
	}
	a.success(fmt.Sprintf("Removed %s from %q", removed.URL, group))
	return nil
}

// Check asks for a site password and reports whether it matches the stored hash
func Check(_ context.Context, a *App, group string, index int) error {
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
	site, err := v.Site(group, index)
	if err != nil {
		return err
	}
	if !site.HasSecret() {
		fmt.Fprintf(a.Out, "%s has no stored password\n", site.URL)
		return nil
	}

	plain, err := a.Prompt.ReadSecret(fmt.Sprintf("Password for %s: ", site.URL))
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plain)

	ok, err := sl.VerifySiteSecret(group, index, string(plain))
	if err != nil {
		return err
	}
	if !ok {
		return ErrSecretMismatch
	}
	a.success("Password matches")
	return nil
}
