package electrolyte

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"

	"electrolytes/internal/fs"
)

const dataDirPerm = 0o755

// Database merges the immutable bundled dataset with the mutable user
// overlay stored on disk. Lookups prefer the user layer: a user entry
// shadows a default entry of the same name, it never merges with it.
//
// Both layers load lazily. The defaults are parsed once and cached for
// the life of the instance. The user layer is invalidated whenever the
// outermost [Database.WithLock] scope is entered (another process may
// have written the file since it was last read) and is flushed to disk
// when the outermost scope exits with pending changes.
//
// A Database is intended for use from a single goroutine; concurrency
// is strictly cross-process and is mediated by the advisory lock on
// the overlay's sibling lock file.
type Database struct {
	userFile string
	lockFile string
	warn     io.Writer

	defaults map[string]*Constituent // nil until first loaded, then immutable
	user     map[string]*Constituent // nil while unloaded
	dirty    bool

	depth int // WithLock reentrancy depth
	lock  *fs.Lock
}

// NewDatabase creates a Database over the files named by cfg. Warnings
// (duplicate adds, corrupt user file) are written to warn; pass nil to
// discard them.
func NewDatabase(cfg Config, warn io.Writer) *Database {
	if warn == nil {
		warn = io.Discard
	}

	return &Database{
		userFile: cfg.UserFile,
		lockFile: cfg.LockFile,
		warn:     warn,
	}
}

// UserFile returns the path of the user overlay file.
func (db *Database) UserFile() string { return db.userFile }

func (db *Database) warnf(format string, args ...any) {
	fmt.Fprintf(db.warn, "warning: "+format+"\n", args...)
}

// WithLock runs fn while holding the cross-process lock.
//
// Scopes nest within the process: only the outermost entry invalidates
// the cached user layer (forcing a fresh read of other processes'
// writes) and only the outermost exit flushes pending changes, so a
// multi-step sequence such as remove-then-add persists as one write.
// The lock is released on every exit path, including when fn or the
// flush fails.
//
// Acquisition blocks until the current holder releases; callers needing
// a bounded wait must impose one externally.
func (db *Database) WithLock(fn func() error) (err error) {
	if db.depth == 0 {
		// dirty implies an open scope, so the layer we discard here is
		// never carrying unwritten changes.
		db.user = nil

		lock, lockErr := fs.LockFile(db.lockFile)
		if lockErr != nil {
			return fmt.Errorf("acquiring database lock: %w", lockErr)
		}

		db.lock = lock
	}

	db.depth++

	defer func() {
		db.depth--
		if db.depth > 0 {
			return
		}

		var flushErr error
		if db.dirty {
			flushErr = db.flush()
			if flushErr != nil {
				// The pending changes are lost and the caller is told so.
				// Discard the layer and the dirty bit, otherwise the next
				// scope would rewrite a freshly reloaded, unmodified layer.
				db.user = nil
				db.dirty = false
			}
		}

		closeErr := db.lock.Close()
		db.lock = nil

		err = errors.Join(err, flushErr, closeErr)
	}()

	return fn()
}

// load makes both layers available.
func (db *Database) load() error {
	if err := db.ensureDefaults(); err != nil {
		return err
	}

	return db.ensureUser()
}

func (db *Database) ensureDefaults() error {
	if db.defaults != nil {
		return nil
	}

	defaults, err := loadDefaults()
	if err != nil {
		return err
	}

	db.defaults = defaults

	return nil
}

// ensureUser loads the overlay if it is not cached. Outside a lock scope
// the read happens under a short-lived lock of its own, so it can never
// observe another process mid-update.
func (db *Database) ensureUser() error {
	if db.user != nil {
		return nil
	}

	if db.depth > 0 {
		db.readUser()

		return nil
	}

	lock, err := fs.LockFile(db.lockFile)
	if err != nil {
		return fmt.Errorf("acquiring database lock: %w", err)
	}

	defer func() { _ = lock.Close() }()

	db.readUser()

	return nil
}

// readUser reads and parses the overlay file. A missing file is an
// empty layer. An unreadable or malformed file also degrades to an
// empty layer, with a warning: a corrupt overlay must never take the
// whole database down.
func (db *Database) readUser() {
	db.user = map[string]*Constituent{}

	data, err := os.ReadFile(db.userFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			db.warnf("failed to load user constituents from %s: %v", db.userFile, err)
		}

		return
	}

	constituents, err := ParseConstituents(data, false)
	if err != nil {
		db.warnf("failed to load user constituents from %s: %v", db.userFile, err)

		return
	}

	for _, c := range constituents {
		db.user[c.Name] = c
	}
}

// flush serializes the user layer (sorted by name for diffable output)
// and writes it atomically, creating the data directory on first write.
func (db *Database) flush() error {
	names := make([]string, 0, len(db.user))
	for name := range db.user {
		names = append(names, name)
	}
	slices.Sort(names)

	constituents := make([]*Constituent, 0, len(names))
	for _, name := range names {
		constituents = append(constituents, db.user[name])
	}

	data, err := DumpConstituents(constituents)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(db.userFile), dataDirPerm); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	if err := atomic.WriteFile(db.userFile, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", db.userFile, err)
	}

	db.dirty = false

	return nil
}

// Get returns the constituent stored under name. The lookup is
// case-insensitive and prefers the user layer. Returns an error
// satisfying errors.Is with [ErrNotFound] when the name is absent from
// both layers.
func (db *Database) Get(name string) (*Constituent, error) {
	name = strings.ToUpper(name)

	if err := db.load(); err != nil {
		return nil, err
	}

	if c, ok := db.user[name]; ok {
		return c, nil
	}

	if c, ok := db.defaults[name]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// ContainsName reports case-insensitive key presence in either layer.
func (db *Database) ContainsName(name string) (bool, error) {
	name = strings.ToUpper(name)

	if err := db.load(); err != nil {
		return false, err
	}

	_, inUser := db.user[name]
	_, inDefaults := db.defaults[name]

	return inUser || inDefaults, nil
}

// ContainsConstituent reports whether the entry stored under c's name
// equals c field-for-field.
func (db *Database) ContainsConstituent(c *Constituent) (bool, error) {
	stored, err := db.Get(c.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	return stored.Equal(c), nil
}

// Add stores a user-defined constituent.
//
// The name must be entirely new: adding a name that already exists in
// either layer is deliberately not an error - the database is left
// unchanged and a warning is emitted. Callers wanting replace semantics
// must Remove first, inside the same [Database.WithLock] scope.
func (db *Database) Add(c *Constituent) error {
	return db.WithLock(func() error {
		exists, err := db.ContainsName(c.Name)
		if err != nil {
			return err
		}

		if exists {
			db.warnf("%s: component was not added (name already exists in database)", c.Name)

			return nil
		}

		db.user[c.Name] = c
		db.dirty = true

		return nil
	})
}

// Remove deletes a user-defined constituent by name (case-insensitive).
//
// Returns [ErrDefaultComponent] when the name exists only in the
// default layer (bundled entries are immutable) and [ErrNotFound] when
// it is absent from both layers.
func (db *Database) Remove(name string) error {
	name = strings.ToUpper(name)

	return db.WithLock(func() error {
		if err := db.load(); err != nil {
			return err
		}

		if _, ok := db.user[name]; ok {
			delete(db.user, name)
			db.dirty = true

			return nil
		}

		if _, ok := db.defaults[name]; ok {
			return fmt.Errorf("%s: %w", name, ErrDefaultComponent)
		}

		return fmt.Errorf("%s: %w", name, ErrNotFound)
	})
}

// Len returns the number of distinct names across both layers.
func (db *Database) Len() (int, error) {
	names, err := db.Names()
	if err != nil {
		return 0, err
	}

	return len(names), nil
}

// Names returns the sorted union of all names across both layers. Each
// call re-derives the listing from the current layer state.
func (db *Database) Names() ([]string, error) {
	if err := db.load(); err != nil {
		return nil, err
	}

	union := make(map[string]struct{}, len(db.defaults)+len(db.user))
	for name := range db.defaults {
		union[name] = struct{}{}
	}

	for name := range db.user {
		union[name] = struct{}{}
	}

	names := make([]string, 0, len(union))
	for name := range union {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// UserDefinedNames returns the sorted user-layer names only.
func (db *Database) UserDefinedNames() ([]string, error) {
	if err := db.ensureUser(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(db.user))
	for name := range db.user {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// IsUserDefined reports case-insensitive presence in the user layer.
func (db *Database) IsUserDefined(name string) (bool, error) {
	if err := db.ensureUser(); err != nil {
		return false, err
	}

	_, ok := db.user[strings.ToUpper(name)]

	return ok, nil
}
