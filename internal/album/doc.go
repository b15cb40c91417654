// Package album implements the client-side picture album core: an ordered
// registry of per-image records, the per-image upload state machine, and the
// key-image selection protocol.
//
// # Overview
//
// A Registry owns an append-only arena of Records. Each Record is identified
// by a LocalID equal to its position at creation time; cleared records are
// tombstoned in place so historical LocalIDs stay valid for the whole
// session. Lookups are available by LocalID, by server-assigned RemoteID, by
// in-flight transport FileHandle, and by Filename.
//
// Upload lifecycle transitions (BeginUpload, MarkUploadStarted,
// ReportProgress, ReportError, CompleteFromServer, ToggleDeletion, Cancel)
// are methods on the Registry so that cross-record invariants — duplicate
// RemoteID detection, the single key-image designation, the form-state
// contract — hold at every step.
//
// # Collaborators
//
// Rendering is delegated to a View; headless callers use NopView. The
// registry maintains a FormState value in lockstep with record status: the
// comma-joined sort order, the key-image field, and one delete marker per
// image marked for deletion.
//
// # Concurrency
//
// The registry is not safe for concurrent use. It models a single-threaded,
// event-driven widget: callers must serialize access, typically by driving
// it from one goroutine.
package album
