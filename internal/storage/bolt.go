package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/illarion/safelist/internal/vault"
)

// Bucket names
var (
	ConfigBucket  = []byte("config")  // Format version, timestamps, vault ID
	AccountBucket = []byte("account") // Username and password hash
	GroupsBucket  = []byte("groups")  // Position -> msgpack group record
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
)

// Account keys
var (
	AccountUsername     = []byte("username")
	AccountPasswordHash = []byte("password_hash")
)

const (
	boltFormatVersion = "1"
	DefaultLockWait   = 2 * time.Second
)

type siteRecord struct {
	URL        string  `msgpack:"url"`
	Identifier *string `msgpack:"identifier"`
	SecretHash *string `msgpack:"secret_hash"`
}

type groupRecord struct {
	Name  string       `msgpack:"name"`
	Sites []siteRecord `msgpack:"sites"`
}

// Bolt stores the vault in a BBolt database. The database is opened for
// the duration of each call and holds the BBolt file lock meanwhile.
type Bolt struct {
	path     string
	lockWait time.Duration
}

// NewBolt creates a BBolt backend for path
func NewBolt(path string) *Bolt {
	return &Bolt{path: path, lockWait: DefaultLockWait}
}

// Path returns the database location
func (b *Bolt) Path() string {
	return b.path
}

func (b *Bolt) fileExists() (bool, error) {
	info, err := os.Stat(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if info.Size() == 0 {
		return true, corrupt("%s is empty", b.path)
	}
	return true, nil
}

func (b *Bolt) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(b.path, FilePermSecure, &bolt.Options{Timeout: b.lockWait, ReadOnly: readOnly})
	switch {
	case err == nil:
		return db, nil
	case errors.Is(err, bolt.ErrTimeout):
		return nil, fmt.Errorf("%w: %w: %s", ErrIO, ErrLocked, b.path)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrIO, err)
	default:
		// bad magic, version mismatch, checksum, truncated file
		return nil, corrupt("%v", err)
	}
}

// Exists reports whether the database has been initialized by Save
func (b *Bolt) Exists() (bool, error) {
	present, err := b.fileExists()
	if err != nil || !present {
		return false, err
	}

	db, err := b.open(true)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var initialized bool
	err = db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		initialized = config != nil && config.Get(ConfigVersion) != nil
		return nil
	})
	return initialized, err
}

// Load reads the vault. A missing file yields an empty vault.
func (b *Bolt) Load() (*vault.Vault, error) {
	present, err := b.fileExists()
	if err != nil {
		return nil, err
	}
	if !present {
		return vault.New(), nil
	}

	db, err := b.open(true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	v := vault.New()
	err = db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return corrupt("config bucket not found")
		}
		if version := config.Get(ConfigVersion); string(version) != boltFormatVersion {
			return corrupt("unsupported format version %q", version)
		}

		account := tx.Bucket(AccountBucket)
		groups := tx.Bucket(GroupsBucket)
		if account == nil || groups == nil {
			return corrupt("missing account or groups bucket")
		}

		acct, err := accountFromFields(optional(account.Get(AccountUsername)), optional(account.Get(AccountPasswordHash)))
		if err != nil {
			return err
		}
		v.Account = acct

		// Keys are big-endian positions, so ForEach visits them in order
		return groups.ForEach(func(k, data []byte) error {
			if len(k) != 4 {
				return corrupt("bad group key %x", k)
			}
			var rec groupRecord
			if err := msgpack.Unmarshal(data, &rec); err != nil {
				return corrupt("group record %d: %v", binary.BigEndian.Uint32(k), err)
			}
			group := vault.Group{Name: rec.Name, Sites: make([]vault.Site, len(rec.Sites))}
			for i, s := range rec.Sites {
				group.Sites[i] = vault.Site{URL: s.URL, Identifier: s.Identifier, SecretHash: s.SecretHash}
			}
			v.Favorites = append(v.Favorites, group)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if err := checkGroups(v.Favorites); err != nil {
		return nil, err
	}
	return v, nil
}

// optional copies a bucket value, since it is only valid during the transaction
func optional(data []byte) *string {
	if data == nil {
		return nil
	}
	s := string(data)
	return &s
}

// Save rewrites the account and groups buckets in a single transaction
func (b *Bolt) Save(v *vault.Vault) error {
	db, err := b.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		config, err := tx.CreateBucketIfNotExists(ConfigBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ConfigBucket, err)
		}
		if err := initConfig(config); err != nil {
			return err
		}

		for _, name := range [][]byte{AccountBucket, GroupsBucket} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("failed to reset bucket %s: %w", name, err)
				}
			}
		}

		account, err := tx.CreateBucket(AccountBucket)
		if err != nil {
			return err
		}
		if v.Account.Exists() {
			if err := account.Put(AccountUsername, []byte(v.Account.Username)); err != nil {
				return err
			}
			if err := account.Put(AccountPasswordHash, []byte(v.Account.PasswordHash)); err != nil {
				return err
			}
		}

		groups, err := tx.CreateBucket(GroupsBucket)
		if err != nil {
			return err
		}
		for i, g := range v.Favorites {
			rec := groupRecord{Name: g.Name, Sites: make([]siteRecord, len(g.Sites))}
			for j, s := range g.Sites {
				rec.Sites[j] = siteRecord{URL: s.URL, Identifier: s.Identifier, SecretHash: s.SecretHash}
			}
			data, err := msgpack.Marshal(&rec)
			if err != nil {
				return fmt.Errorf("failed to encode group %q: %w", g.Name, err)
			}
			key := make([]byte, 4)
			binary.BigEndian.PutUint32(key, uint32(i))
			if err := groups.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// initConfig sets version and timestamps, and creates the vault ID once
func initConfig(config *bolt.Bucket) error {
	now, _ := time.Now().MarshalBinary()
	if config.Get(ConfigCreated) == nil {
		if err := config.Put(ConfigCreated, now); err != nil {
			return err
		}
	}
	if config.Get(ConfigVaultID) == nil {
		if err := config.Put(ConfigVaultID, []byte(uuid.NewString())); err != nil {
			return err
		}
	}
	if err := config.Put(ConfigVersion, []byte(boltFormatVersion)); err != nil {
		return err
	}
	return config.Put(ConfigModified, now)
}

// ID returns the vault ID stored at first save
func (b *Bolt) ID() (string, error) {
	present, err := b.fileExists()
	if err != nil {
		return "", err
	}
	if !present {
		return "", ErrNotInitialized
	}

	db, err := b.open(true)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var vaultID string
	err = db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigVaultID)
		if data == nil {
			return ErrNotInitialized
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// Modified returns the time of the last Save
func (b *Bolt) Modified() (time.Time, error) {
	var modified time.Time
	present, err := b.fileExists()
	if err != nil {
		return modified, err
	}
	if !present {
		return modified, ErrNotInitialized
	}

	db, err := b.open(true)
	if err != nil {
		return modified, err
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return ErrNotInitialized
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// Compact creates a compacted copy of the database and swaps it in,
// reclaiming the pages freed by earlier saves
func (b *Bolt) Compact() error {
	src, err := b.open(false)
	if err != nil {
		return err
	}

	tmpPath := b.path + ".compact"
	os.Remove(tmpPath) // leftover from an interrupted compaction
	dst, err := bolt.Open(tmpPath, FilePermSecure, &bolt.Options{Timeout: b.lockWait})
	if err != nil {
		src.Close()
		return fmt.Errorf("%w: failed to create compact database: %w", ErrIO, err)
	}

	if err := bolt.Compact(dst, src, 0); err != nil {
		dst.Close()
		src.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to copy data: %w", ErrIO, err)
	}

	if err := dst.Close(); err != nil {
		src.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close compact database: %w", ErrIO, err)
	}
	if err := src.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close source database: %w", ErrIO, err)
	}

	// Atomic replace
	backupPath := b.path + ".backup"
	if err := os.Rename(b.path, backupPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to backup original: %w", ErrIO, err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Rename(backupPath, b.path) // rollback
		return fmt.Errorf("%w: failed to replace database: %w", ErrIO, err)
	}
	os.Remove(backupPath)

	return nil
}
