// Package dump provides debugging tooling for rendering and comparing
// manifest-graph snapshots, grounded in the teacher's tree/diagnostics.go
// (DumpNodes, ListNodesInUse) and cmd/muscle's "diff" subcommand. It is a
// debugging seam for development, not a piece of the product surface.
package dump

import (
	"bytes"
	"fmt"
	"os"

	"github.com/opaquecloud/lffs/access"
	"github.com/opaquecloud/lffs/beacon"
	"github.com/opaquecloud/lffs/cache"
	"github.com/opaquecloud/lffs/events"
	"github.com/opaquecloud/lffs/fs"
	"github.com/opaquecloud/lffs/ids"
	"github.com/opaquecloud/lffs/internal/config"
	"github.com/opaquecloud/lffs/lbs"
	"github.com/opaquecloud/lffs/resolver"
)

// Open loads the configuration, local blob store and persisted root Access
// from base, and wires up a Mutator against them, exactly as a long-lived
// process would, but for a single one-shot inspection.
func Open(base string) (*fs.Mutator, error) {
	cfg, err := config.Load(base)
	if err != nil {
		return nil, fmt.Errorf("dump.Open: loading config: %w", err)
	}
	store, err := lbs.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("dump.Open: building store: %w", err)
	}
	root, err := LoadRoot(cfg.RootFilePath())
	if err != nil {
		return nil, fmt.Errorf("dump.Open: loading root: %w", err)
	}
	userID, err := ids.NewUserID(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("dump.Open: %w", err)
	}
	deviceName, err := ids.NewDeviceName(cfg.DeviceName)
	if err != nil {
		return nil, fmt.Errorf("dump.Open: %w", err)
	}
	device, err := ids.DeviceIDFromParts(userID, deviceName)
	if err != nil {
		return nil, fmt.Errorf("dump.Open: %w", err)
	}

	c := cache.New(store, root, device)
	r := resolver.New(c)
	b := beacon.New(c, r)
	bus := events.NewBus()
	return fs.New(c, r, b, bus, device), nil
}

// Snapshot renders m's manifest graph as the indented text produced by
// Mutator.Dump.
func Snapshot(m *fs.Mutator) (string, error) {
	var buf bytes.Buffer
	if err := m.Dump(&buf); err != nil {
		return "", fmt.Errorf("dump.Snapshot: %w", err)
	}
	return buf.String(), nil
}

// LoadRoot reads the Access persisted at path, in the single-line JSON
// form written by SaveRoot.
func LoadRoot(path string) (access.Access, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return access.Access{}, fmt.Errorf("dump.LoadRoot: %w", err)
	}
	var a access.Access
	if err := a.UnmarshalJSON(bytes.TrimSpace(b)); err != nil {
		return access.Access{}, fmt.Errorf("dump.LoadRoot: %q: %w", path, err)
	}
	return a, nil
}

// SaveRoot persists a to path atomically, mirroring the teacher's
// tree.Store pattern of writing to a ".new" sibling and renaming over the
// original.
func SaveRoot(path string, a access.Access) error {
	b, err := a.MarshalJSON()
	if err != nil {
		return fmt.Errorf("dump.SaveRoot: %w", err)
	}
	b = append(b, '\n')
	tmp := path + ".new"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("dump.SaveRoot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("dump.SaveRoot: %w", err)
	}
	return nil
}
