package version

import (
	"fmt"

	"github.com/dshills/modkit/internal/merge"
	"github.com/dshills/modkit/internal/storage"
)

// Migrator upgrades persisted settings to TargetVersion.
//
// Migrate is called at most once per check, only when the stored version
// is older than TargetVersion. It must be safe to run again on settings it
// already migrated. It reports whether it changed anything.
type Migrator interface {
	TargetVersion() string
	Migrate(settings storage.Settings) (bool, error)
}

// Named is implemented by migrators that want a readable name in logs.
type Named interface {
	Name() string
}

func migratorName(m Migrator) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}

// funcMigrator is a Migrator built from a function.
type funcMigrator struct {
	name   string
	target string
	fn     func(storage.Settings) (bool, error)
}

func (f *funcMigrator) TargetVersion() string { return f.target }
func (f *funcMigrator) Name() string          { return f.name }

func (f *funcMigrator) Migrate(settings storage.Settings) (bool, error) {
	return f.fn(settings)
}

// Func creates a migrator from fn.
func Func(name, target string, fn func(storage.Settings) (bool, error)) Migrator {
	return &funcMigrator{name: name, target: target, fn: fn}
}

// Rename creates a migrator that moves the value at oldPath to newPath.
// Paths are dot-separated, starting with the module storage key.
func Rename(target, oldPath, newPath string) Migrator {
	return Func("rename "+oldPath, target, func(s storage.Settings) (bool, error) {
		value, found := merge.GetByPath(s, oldPath)
		if !found {
			return false, nil
		}
		if !merge.SetByPath(s, newPath, value) {
			return false, fmt.Errorf("setting %s: path blocked by a non-map value", newPath)
		}
		merge.DeleteByPath(s, oldPath)
		return true, nil
	})
}

// Transform creates a migrator that rewrites the value at path.
func Transform(target, path string, transform func(any) (any, error)) Migrator {
	return Func("transform "+path, target, func(s storage.Settings) (bool, error) {
		value, found := merge.GetByPath(s, path)
		if !found {
			return false, nil
		}
		next, err := transform(value)
		if err != nil {
			return false, fmt.Errorf("transforming %s: %w", path, err)
		}
		if !merge.SetByPath(s, path, next) {
			return false, fmt.Errorf("setting %s: path blocked by a non-map value", path)
		}
		return true, nil
	})
}

// Delete creates a migrator that removes the value at path.
func Delete(target, path string) Migrator {
	return Func("delete "+path, target, func(s storage.Settings) (bool, error) {
		return merge.DeleteByPath(s, path), nil
	})
}
