package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illarion/safelist/internal/vault"
)

// document mirrors the data.json layout:
//
//	{"account": {...}, "favorites": {"<group>": [ {...}, ... ]}}
type document struct {
	Account   *accountDoc   `json:"account"`
	Favorites *favoritesDoc `json:"favorites"`
}

type accountDoc struct {
	Username     *string `json:"username"`
	PasswordHash *string `json:"password_hash"`
}

type siteDoc struct {
	URL             *string `json:"url"`
	EmailOrUsername *string `json:"email_or_username"`
	Password        *string `json:"password"`
}

type groupDoc struct {
	name  string
	sites []siteDoc
}

// favoritesDoc is a JSON object whose key order is significant
type favoritesDoc []groupDoc

func (f favoritesDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(g.name)
		if err != nil {
			return nil, err
		}
		sites := g.sites
		if sites == nil {
			sites = []siteDoc{}
		}
		list, err := json.Marshal(sites)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *favoritesDoc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("favorites must be an object")
	}

	seen := make(map[string]bool)
	groups := make(favoritesDoc, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		if seen[name] {
			return fmt.Errorf("duplicate group %q", name)
		}
		seen[name] = true

		var sites []siteDoc
		if err := dec.Decode(&sites); err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		if sites == nil {
			return fmt.Errorf("group %q must be a list", name)
		}
		groups = append(groups, groupDoc{name: name, sites: sites})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = groups
	return nil
}

// EncodeJSON renders a vault as a data.json document
func EncodeJSON(v *vault.Vault) ([]byte, error) {
	doc := document{Account: &accountDoc{}}
	if v.Account.Exists() {
		username, hash := v.Account.Username, v.Account.PasswordHash
		doc.Account.Username = &username
		doc.Account.PasswordHash = &hash
	}

	favorites := make(favoritesDoc, 0, len(v.Favorites))
	for _, g := range v.Favorites {
		sites := make([]siteDoc, len(g.Sites))
		for i, s := range g.Sites {
			url := s.URL
			sites[i] = siteDoc{
				URL:             &url,
				EmailOrUsername: s.Identifier,
				Password:        s.SecretHash,
			}
		}
		favorites = append(favorites, groupDoc{name: g.Name, sites: sites})
	}
	doc.Favorites = &favorites

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return data, nil
}

// DecodeJSON parses a data.json document. Anything that is not a complete,
// well-formed document is ErrCorruptStore.
func DecodeJSON(data []byte) (*vault.Vault, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, corrupt("%v", err)
	}
	if doc.Account == nil {
		return nil, corrupt("missing account")
	}
	if doc.Favorites == nil {
		return nil, corrupt("missing favorites")
	}

	account, err := accountFromFields(doc.Account.Username, doc.Account.PasswordHash)
	if err != nil {
		return nil, err
	}

	v := vault.New()
	v.Account = account
	for _, g := range *doc.Favorites {
		group := vault.Group{Name: g.name, Sites: make([]vault.Site, len(g.sites))}
		for i, s := range g.sites {
			if s.URL == nil {
				return nil, corrupt("group %q site %d has no url", g.name, i)
			}
			group.Sites[i] = vault.Site{
				URL:        *s.URL,
				Identifier: s.EmailOrUsername,
				SecretHash: s.Password,
			}
		}
		v.Favorites = append(v.Favorites, group)
	}

	if err := checkGroups(v.Favorites); err != nil {
		return nil, err
	}
	return v, nil
}
