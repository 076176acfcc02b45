package driver

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/chic-lang/chic/internal/cache"
	"github.com/chic-lang/chic/internal/intern"
	"github.com/chic-lang/chic/internal/layout"
)

// Snapshot bundles the three pieces of state spec.md §6 allows a driver
// run to carry forward from a prior run: the interner, the layout
// table, and the body cache. It round-trips through YAML (grounded on
// the teacher's manifest/effects layers already depending on
// gopkg.in/yaml.v3) so a driver caller can persist it to disk between
// incremental runs of step 1, "install prior interner/layout
// snapshots."
type Snapshot struct {
	Interner  []intern.InternedStr `yaml:"interner"`
	Layout    []layout.Entry       `yaml:"layout"`
	BodyCache []cache.SnapshotEntry `yaml:"body_cache"`
}

// SaveSnapshot serializes in, lt, and bc's current state to w as YAML.
func SaveSnapshot(w io.Writer, in *intern.Interner, lt *layout.Table, bc *cache.BodyCache) error {
	snap := Snapshot{}
	if in != nil {
		snap.Interner = in.Snapshot()
	}
	if lt != nil {
		snap.Layout = lt.Snapshot()
	}
	if bc != nil {
		snap.BodyCache = bc.Snapshot()
	}
	return yaml.NewEncoder(w).Encode(snap)
}

// LoadSnapshot reads a Snapshot from r and installs it into in, lt, and
// bc. Any of the three may be nil, in which case that part of the
// snapshot is skipped. An inconsistent interner snapshot (see
// intern.Interner.InstallSnapshot) is returned as an error; layout and
// body-cache installation never fail — a stale or malformed entry for
// a given key is simply shadowed by whatever is computed fresh.
func LoadSnapshot(r io.Reader, in *intern.Interner, lt *layout.Table, bc *cache.BodyCache) error {
	var snap Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if in != nil {
		if err := in.InstallSnapshot(snap.Interner); err != nil {
			return err
		}
	}
	if lt != nil {
		lt.InstallSnapshot(snap.Layout)
	}
	if bc != nil {
		bc.InstallSnapshot(snap.BodyCache)
	}
	return nil
}
