package album

import "strings"

// DefaultRetryLimit is the number of recoverable-error retries an upload
// gets before it is permanently failed.
const DefaultRetryLimit = 1

// noKeyImage is the keyImageID value when no record holds the designation.
const noKeyImage = -1

// FindOptions widens the default match filter of the handle and filename
// finders. By default canceled and errored records are excluded, so that a
// retried upload's new handle is matched instead of the old failed one.
type FindOptions struct {
	IncludeCanceled bool
	IncludeErrored  bool
}

// Registry owns the ordered arena of image records for one album session.
// It is an explicit instance: construct one per album and hand it to
// whatever drives it. Not safe for concurrent use.
type Registry struct {
	records    []*Record
	keyImageID int
	view       View
	form       FormState

	// RetryLimit caps recoverable-error retries per record.
	RetryLimit int

	// OnKeyChange, when set, is invoked after the key designation moves to a
	// new record, unless the caller suppressed the event.
	OnKeyChange func(*Record)

	// OnDirty, when set, is invoked when a new upload begins, so the host
	// can warn before navigating away from in-progress work.
	OnDirty func()

	placeholderShown bool
}

// NewRegistry constructs an empty registry rendering through view. A nil
// view is replaced by NopView. The empty-album placeholder starts visible.
func NewRegistry(view View) *Registry {
	if view == nil {
		view = NopView{}
	}
	r := &Registry{
		view:             view,
		keyImageID:       noKeyImage,
		RetryLimit:       DefaultRetryLimit,
		placeholderShown: true,
	}
	view.ShowPlaceholder()
	return r
}

// Form returns the registry's form state.
func (g *Registry) Form() *FormState {
	return &g.form
}

// Len returns the total number of records ever created, tombstones included.
func (g *Registry) Len() int {
	return len(g.records)
}

// Create appends a new record. Its LocalID equals the registry length before
// insertion and is never reassigned. Creating the first record suppresses
// the empty-album placeholder.
func (g *Registry) Create() *Record {
	r := &Record{
		LocalID: len(g.records),
		Status:  StatusCreated,
	}
	g.records = append(g.records, r)
	if g.placeholderShown {
		g.placeholderShown = false
		g.view.HidePlaceholder()
	}
	return r
}

// FindByLocalID returns the record at id, or nil when id is out of range.
// Tombstoned records are returned as-is: callers that need idempotent
// clearing must be able to observe the tombstone.
func (g *Registry) FindByLocalID(id int) *Record {
	if id < 0 || id >= len(g.records) {
		return nil
	}
	return g.records[id]
}

// FindByRemoteID returns the first live record with the given RemoteID.
// An empty id returns nil so in-progress uploads, which have no RemoteID
// yet, can never be false-matched.
func (g *Registry) FindByRemoteID(id string) *Record {
	if id == "" {
		return nil
	}
	for _, r := range g.records {
		if r.Live() && r.RemoteID == id {
			return r
		}
	}
	return nil
}

// FindByFileHandle returns the first live record whose FileHandle matches.
// Canceled and errored records are skipped unless opts says otherwise.
func (g *Registry) FindByFileHandle(handle string, opts FindOptions) *Record {
	if handle == "" {
		return nil
	}
	for _, r := range g.records {
		if r.Live() && r.FileHandle == handle && g.matchable(r, opts) {
			return r
		}
	}
	return nil
}

// FindByFilename returns the first live record whose Filename matches, with
// the same filter semantics as FindByFileHandle.
func (g *Registry) FindByFilename(name string, opts FindOptions) *Record {
	if name == "" {
		return nil
	}
	for _, r := range g.records {
		if r.Live() && r.Filename == name && g.matchable(r, opts) {
			return r
		}
	}
	return nil
}

func (g *Registry) matchable(r *Record, opts FindOptions) bool {
	if r.Status == StatusCanceled && !opts.IncludeCanceled {
		return false
	}
	if r.Status == StatusErrored && !opts.IncludeErrored {
		return false
	}
	return true
}

// Clear tombstones the record at localID. No-op when the record does not
// exist or is already tombstoned, so the operation is idempotent. A cleared
// key image loses the designation outright: it is not transferred, and the
// key form field resets to the empty string. When no live records remain the
// placeholder is restored.
func (g *Registry) Clear(localID int) {
	r := g.FindByLocalID(localID)
	if !r.Live() {
		return
	}

	if g.keyImageID == r.LocalID {
		g.keyImageID = noKeyImage
		g.form.KeyImage = ""
		g.view.UnmarkKey(r)
	}

	g.view.RemoveSlot(r)
	r.Tombstoned = true

	for _, rec := range g.records {
		if rec.Live() {
			return
		}
	}
	g.placeholderShown = true
	g.view.ShowPlaceholder()
}

// KeyImage returns the currently designated key image, or nil.
func (g *Registry) KeyImage() *Record {
	if g.keyImageID == noKeyImage {
		return nil
	}
	return g.records[g.keyImageID]
}

// SetKeyImage moves the key designation to r. When r already holds it the
// call is a no-op returning true and fires no event. Otherwise the record's
// RemoteID is persisted into the key form field, the visual marking moves,
// and OnKeyChange fires unless suppressEvent is set. Returns false only for
// nil or tombstoned targets; terminal canceled/errored records are accepted.
func (g *Registry) SetKeyImage(r *Record, suppressEvent bool) bool {
	if !r.Live() {
		return false
	}
	if g.keyImageID == r.LocalID {
		return true
	}

	if prev := g.KeyImage(); prev.Live() {
		g.view.UnmarkKey(prev)
	}

	g.keyImageID = r.LocalID
	g.form.KeyImage = r.RemoteID
	g.view.MarkKey(r)

	if !suppressEvent && g.OnKeyChange != nil {
		g.OnKeyChange(r)
	}
	return true
}

// HasUnfinishedUploads reports whether any live record is still queued or
// uploading.
func (g *Registry) HasUnfinishedUploads() bool {
	for _, r := range g.records {
		if r.Live() && (r.Status == StatusQueued || r.Status == StatusUploading) {
			return true
		}
	}
	return false
}

// HasPendingDeletions reports whether any live record is marked for
// deletion.
func (g *Registry) HasPendingDeletions() bool {
	for _, r := range g.records {
		if r.Live() && r.Status == StatusDeleting {
			return true
		}
	}
	return false
}

// SortOrder serializes the album's current visual order into the sort-order
// form field and returns it. visual lists LocalIDs in display order; entries
// that are out of range, tombstoned, or have no RemoteID yet are skipped.
func (g *Registry) SortOrder(visual []int) string {
	ids := make([]string, 0, len(visual))
	for _, localID := range visual {
		r := g.FindByLocalID(localID)
		if !r.Live() || r.RemoteID == "" {
			continue
		}
		ids = append(ids, r.RemoteID)
	}
	g.form.SortOrder = strings.Join(ids, ",")
	return g.form.SortOrder
}
