// Package registry implements the on-disk store that holds the latest
// SiteMap snapshot per domain plus an ordered chain of deltas on top of
// it (component C6), giving every Cortex instance push/pull/pull-since/gc
// semantics for sharing maps without a central server.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/webcortex/sitemap-engine/internal/cache/keys"
	"github.com/webcortex/sitemap-engine/internal/core/observability"
	"github.com/webcortex/sitemap-engine/internal/delta"
	"github.com/webcortex/sitemap-engine/internal/jsonutil"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// DeltaRef points at one stored delta on disk.
type DeltaRef struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	BaseHash  [32]byte  `json:"base_hash"`
}

// Entry is a single domain's registry state: where its latest snapshot
// lives, and the ordered chain of deltas layered on top of it.
type Entry struct {
	Domain          string     `json:"domain"`
	LatestHash      [32]byte   `json:"latest_hash"`
	LatestTimestamp time.Time  `json:"latest_timestamp"`
	SnapshotPath    string     `json:"snapshot_path"`
	Deltas          []DeltaRef `json:"deltas"`
	ContributedBy   []string   `json:"contributed_by"`
}

// Stats summarizes the registry's current footprint.
type Stats struct {
	DomainCount        int   `json:"domain_count"`
	TotalSnapshotBytes int64 `json:"total_snapshot_bytes"`
	TotalDeltas        int   `json:"total_deltas"`
}

// Registry is a local, filesystem-backed store of domain snapshots and
// deltas. It is not safe for concurrent use from multiple goroutines
// without external locking; callers that need that typically own one
// Registry per process and serialize access to it themselves.
type Registry struct {
	storageDir string
	index      map[string]*Entry
}

// Open creates the storage directory if needed and loads any existing
// index.json, giving back a Registry ready for Push/Pull.
func Open(storageDir string) (*Registry, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("registry: creating storage dir %q: %w", storageDir, err)
	}

	r := &Registry{storageDir: storageDir, index: make(map[string]*Entry)}

	indexPath := filepath.Join(storageDir, "index.json")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("registry: reading index: %w", err)
	}
	if err := jsonutil.Unmarshal(data, &r.index); err != nil {
		return nil, fmt.Errorf("registry: decoding index: %w", err)
	}
	return r, nil
}

func (r *Registry) domainDir(domain string) string {
	return filepath.Join(r.storageDir, keys.RegistryDir(domain))
}

// Push stores map as the domain's new latest snapshot and, if d is
// non-nil, appends it to the domain's delta chain.
func (r *Registry) Push(domain string, m *sitemap.SiteMap, d *delta.MapDelta) error {
	dir := r.domainDir(domain)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("registry: creating domain dir: %w", err)
	}

	snapshotPath := filepath.Join(dir, "snapshot.ctx")
	if err := os.WriteFile(snapshotPath, m.Serialize(), 0o644); err != nil {
		return fmt.Errorf("registry: writing snapshot: %w", err)
	}

	existing, found := r.index[domain]
	deltas := []DeltaRef{}
	contributedBy := []string{}
	if found {
		deltas = existing.Deltas
		contributedBy = existing.ContributedBy
	}

	deltaBytes := 0
	if d != nil {
		deltaPath := uniqueDeltaPath(dir, d.Timestamp)
		encoded, err := delta.Serialize(*d)
		if err != nil {
			return fmt.Errorf("registry: encoding delta: %w", err)
		}
		if err := os.WriteFile(deltaPath, encoded, 0o644); err != nil {
			return fmt.Errorf("registry: writing delta: %w", err)
		}
		deltas = append(deltas, DeltaRef{Timestamp: d.Timestamp, Path: deltaPath, BaseHash: d.BaseHash})
		deltaBytes = len(encoded)
		contributedBy = appendUnique(contributedBy, d.InstanceID)
	}

	r.index[domain] = &Entry{
		Domain:          domain,
		LatestHash:      delta.HashMap(m),
		LatestTimestamp: time.Now().UTC(),
		SnapshotPath:    snapshotPath,
		Deltas:          deltas,
		ContributedBy:   contributedBy,
	}

	kind := "delta"
	if d == nil {
		kind = "snapshot"
	}
	observability.ObserveRegistryPush(domain, kind, deltaBytes)

	return r.saveIndex()
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// Pull returns the domain's latest snapshot and the time it was stored,
// or ok=false if the domain is unknown or its snapshot has gone missing.
func (r *Registry) Pull(domain string) (m *sitemap.SiteMap, at time.Time, ok bool, err error) {
	entry, found := r.index[domain]
	if !found {
		return nil, time.Time{}, false, nil
	}
	data, readErr := os.ReadFile(entry.SnapshotPath)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("registry: reading snapshot: %w", readErr)
	}
	m, err = sitemap.Deserialize(data)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("registry: deserializing snapshot: %w", err)
	}
	observability.ObserveRegistryPull(domain)
	return m, entry.LatestTimestamp, true, nil
}

// PullSince returns every delta recorded for domain strictly after since,
// in chronological order, or ok=false if the domain is unknown.
func (r *Registry) PullSince(domain string, since time.Time) (deltas []delta.MapDelta, ok bool, err error) {
	entry, found := r.index[domain]
	if !found {
		return nil, false, nil
	}
	for _, ref := range entry.Deltas {
		if !ref.Timestamp.After(since) {
			continue
		}
		data, readErr := os.ReadFile(ref.Path)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return nil, false, fmt.Errorf("registry: reading delta %q: %w", ref.Path, readErr)
		}
		d, decErr := delta.Deserialize(data)
		if decErr != nil {
			return nil, false, fmt.Errorf("registry: decoding delta %q: %w", ref.Path, decErr)
		}
		deltas = append(deltas, d)
	}
	return deltas, true, nil
}

// List returns every registry entry, sorted by domain for deterministic
// output.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.index))
	for _, e := range r.index {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Stats reports aggregate registry size.
func (r *Registry) Stats() Stats {
	s := Stats{DomainCount: len(r.index)}
	for _, e := range r.index {
		if info, err := os.Stat(e.SnapshotPath); err == nil {
			s.TotalSnapshotBytes += info.Size()
		}
		s.TotalDeltas += len(e.Deltas)
	}
	return s
}

// String renders s for log lines, with the snapshot footprint in
// human-readable form (e.g. "12 domains, 4.1 MB snapshots, 37 deltas").
func (s Stats) String() string {
	return fmt.Sprintf("%d domains, %s snapshots, %d deltas",
		s.DomainCount, humanize.Bytes(uint64(s.TotalSnapshotBytes)), s.TotalDeltas)
}

// GC trims every domain's delta chain down to its most recent keepCount
// entries, deleting the dropped files from disk, and returns how many
// were removed.
func (r *Registry) GC(keepCount int) (int, error) {
	removed := 0
	for domain, entry := range r.index {
		sort.Slice(entry.Deltas, func(i, j int) bool {
			return entry.Deltas[i].Timestamp.Before(entry.Deltas[j].Timestamp)
		})
		removedForDomain := 0
		for len(entry.Deltas) > keepCount {
			old := entry.Deltas[0]
			entry.Deltas = entry.Deltas[1:]
			if err := os.Remove(old.Path); err == nil || os.IsNotExist(err) {
				removedForDomain++
			}
		}
		removed += removedForDomain
		observability.AddRegistryGCDeleted(domain, removedForDomain)
	}
	return removed, r.saveIndex()
}

// uniqueDeltaPath names a delta file "delta_YYYYMMDD_HHMMSS.bin" per §4.6
// and §6, disambiguating with a "-N" suffix on the rare second where more
// than one delta lands in the same domain directory.
func uniqueDeltaPath(dir string, ts time.Time) string {
	stamp := ts.UTC().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("delta_%s.bin", stamp))
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("delta_%s-%d.bin", stamp, n))
	}
}

func (r *Registry) saveIndex() error {
	data, err := jsonutil.MarshalIndent(r.index, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encoding index: %w", err)
	}
	indexPath := filepath.Join(r.storageDir, "index.json")
	tmp := indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("registry: writing index: %w", err)
	}
	if err := os.Rename(tmp, indexPath); err != nil {
		return fmt.Errorf("registry: committing index: %w", err)
	}
	return nil
}
