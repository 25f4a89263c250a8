// Package workspace holds the explorer's filter-set workspace: a small,
// ordered collection of filter sets of which exactly one is active.
//
// A workspace is never empty. Removing or clearing the last set leaves a
// fresh empty one behind. Filters are deep-copied on every write and
// every read, so callers can keep mutating their own states.
//
//	ws := workspace.New()
//	ws.Update(state)      // edit the active set
//	ws.Duplicate()        // copy it and switch to the copy
//	ws.Use(first.ID)      // switch back
package workspace

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/filter"
)

// FilterSet is a filter with optional saved-set details.
type FilterSet struct {
	SavedID     string       `json:"savedId,omitempty"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Filter      filter.State `json:"filter"`
}

func (fs FilterSet) clone() FilterSet {
	fs.Filter = fs.Filter.Clone()
	return fs
}

// Entry is a filter set and its workspace ID.
type Entry struct {
	ID string `json:"id"`
	FilterSet
}

// Workspace is safe for concurrent use.
type Workspace struct {
	mu     sync.RWMutex
	ids    []string
	sets   map[string]FilterSet
	active string
}

// New returns a workspace holding one empty, active filter set.
func New() *Workspace {
	w := &Workspace{}
	w.reset()
	return w
}

func (w *Workspace) reset() Entry {
	w.ids = nil
	w.sets = map[string]FilterSet{}
	return w.add(FilterSet{})
}

// add appends fs under a new ID and makes it active.
func (w *Workspace) add(fs FilterSet) Entry {
	id := uuid.NewString()
	w.ids = append(w.ids, id)
	w.sets[id] = fs.clone()
	w.active = id
	return w.entry(id)
}

func (w *Workspace) entry(id string) Entry {
	return Entry{ID: id, FilterSet: w.sets[id].clone()}
}

// Active returns the active filter set.
func (w *Workspace) Active() Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.entry(w.active)
}

// All returns every filter set in creation order.
func (w *Workspace) All() []Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Entry, len(w.ids))
	for i, id := range w.ids {
		out[i] = w.entry(id)
	}
	return out
}

// Len returns the number of filter sets.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.ids)
}

// Create adds an empty filter set and makes it active.
func (w *Workspace) Create() Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(FilterSet{})
}

// Duplicate copies the active filter into a new set and makes it active.
// Saved-set details are not copied.
func (w *Workspace) Duplicate() Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(FilterSet{Filter: w.sets[w.active].Filter})
}

// Load adds a copy of a saved filter set and makes it active.
func (w *Workspace) Load(fs FilterSet) Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(fs)
}

// Update replaces the active filter. The set stops being a copy of a
// saved set, so its saved details are dropped.
func (w *Workspace) Update(s filter.State) Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sets[w.active] = FilterSet{Filter: s.Clone()}
	return w.entry(w.active)
}

// Remove deletes the active set and activates the first remaining one.
// Removing the only set replaces it with a fresh empty set.
func (w *Workspace) Remove() Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.ids) == 1 {
		return w.reset()
	}
	delete(w.sets, w.active)
	w.ids = slices.DeleteFunc(w.ids, func(id string) bool { return id == w.active })
	w.active = w.ids[0]
	return w.entry(w.active)
}

// Clear drops every set and leaves a single fresh empty one.
func (w *Workspace) Clear() Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reset()
}

// Use makes the set with the given ID active.
func (w *Workspace) Use(id string) (Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sets[id]; !ok {
		return Entry{}, errors.New(errors.ErrCodeNotFound, "filter set %q is not in the workspace", id)
	}
	w.active = id
	return w.entry(id), nil
}

// Snapshot is the serialized form of a workspace.
type Snapshot struct {
	Active string  `json:"active"`
	All    []Entry `json:"all"`
}

// Snapshot returns a consistent copy of the workspace.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := Snapshot{Active: w.active, All: make([]Entry, len(w.ids))}
	for i, id := range w.ids {
		out.All[i] = w.entry(id)
	}
	return out
}

// MarshalJSON encodes the workspace as a Snapshot.
func (w *Workspace) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Snapshot())
}

// UnmarshalJSON restores a workspace from a Snapshot. An empty snapshot
// yields a single empty set; an unknown active ID activates the first set.
func (w *Workspace) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode workspace")
	}
	if len(snap.All) == 0 {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.reset()
		return nil
	}

	ids := make([]string, 0, len(snap.All))
	sets := make(map[string]FilterSet, len(snap.All))
	for _, e := range snap.All {
		if e.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "workspace entry without id")
		}
		if _, dup := sets[e.ID]; dup {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate workspace entry %q", e.ID)
		}
		ids = append(ids, e.ID)
		sets[e.ID] = e.FilterSet.clone()
	}
	active := snap.Active
	if _, ok := sets[active]; !ok {
		active = ids[0]
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids, w.sets, w.active = ids, sets, active
	return nil
}
