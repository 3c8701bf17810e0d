package core

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/safelist/internal/vault"
)

// ListingText renders a vault as one line per group and site, in stored
// order. Secret hashes are reduced to a marker.
func ListingText(v *vault.Vault) string {
	var b strings.Builder
	if v.Account.Exists() {
		fmt.Fprintf(&b, "account %s\n", v.Account.Username)
	}
	for _, g := range v.Favorites {
		fmt.Fprintf(&b, "group %s\n", g.Name)
		for i, site := range g.Sites {
			fmt.Fprintf(&b, "  %d. %s", i+1, site.URL)
			if site.Identifier != nil {
				fmt.Fprintf(&b, " [%s]", *site.Identifier)
			}
			if site.HasSecret() {
				b.WriteString(" (secret)")
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// DiffVaults returns a line diff of the listings of from and to, with
// unified-style headers, or "" when they are identical
func DiffVaults(from, to *vault.Vault, fromName, toName string) string {
	fromText, toText := ListingText(from), ListingText(to)
	if fromText == toText {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(fromText, toText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result strings.Builder
	fmt.Fprintf(&result, "--- %s\n", fromName)
	fmt.Fprintf(&result, "+++ %s\n", toName)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
		}
	}
	return result.String()
}
