package album

// ServerImage is the upload-completion payload: what the server reports once
// it has persisted an image. RemoteID, ThumbURL and FullURL are required;
// everything else is display metadata copied verbatim onto the record.
type ServerImage struct {
	RemoteID string `json:"id"`
	ThumbURL string `json:"thumbImageURL"`
	FullURL  string `json:"fullImageURL"`
	Filename string `json:"filename,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Valid reports whether the payload carries all required fields.
func (s ServerImage) Valid() bool {
	return s.RemoteID != "" && s.ThumbURL != "" && s.FullURL != ""
}

// BeginUpload moves a freshly created record into the queued state for the
// given transport handle and filename. Both must be present; a malformed
// file routes to the terminal bad-file error path and returns ErrBadFile.
// On success the host form is marked dirty.
func (g *Registry) BeginUpload(r *Record, fileHandle, filename string) error {
	if !r.Live() {
		return ErrBadFile
	}
	if fileHandle == "" || filename == "" {
		g.failTerminal(r, BadFileMessage)
		return ErrBadFile
	}

	if !g.transition(r, StatusQueued) {
		return ErrBadFile
	}
	r.FileHandle = fileHandle
	r.Filename = filename
	g.view.RenderQueued(r)
	if g.OnDirty != nil {
		g.OnDirty()
	}
	return nil
}

// MarkUploadStarted moves r into the uploading state and (re)creates its
// progress indicator at zero. Safe to call again for a record that is
// already uploading: the indicator is simply redrawn.
func (g *Registry) MarkUploadStarted(r *Record) {
	if !r.Live() {
		return
	}
	if r.Status != StatusUploading && !g.transition(r, StatusUploading) {
		return
	}
	r.progressShown = true
	g.view.RenderUploading(r)
	g.view.UpdateProgress(r, 0)
}

// ReportProgress updates r's progress indicator to fraction (0..1) of the
// transfer. A report arriving before the start event self-heals by entering
// the uploading state first. Beyond 0.99 the processing notice is surfaced,
// anticipating server-side work after the raw transfer completes.
func (g *Registry) ReportProgress(r *Record, fraction float64) {
	if !r.Live() {
		return
	}
	if !r.progressShown {
		g.MarkUploadStarted(r)
	}
	g.view.UpdateProgress(r, fraction*100)
	if fraction > 0.99 {
		g.view.ShowProcessing(r)
	}
}

// ReportError records one failed upload attempt. The error count is
// incremented; recoverable errors within the retry limit demote the record
// back to queued, signaling the transport to requeue it. Anything else is
// terminal. The error view is always re-rendered.
func (g *Registry) ReportError(r *Record, e UploadError) {
	if !r.Live() {
		return
	}

	r.ErrorCount++
	r.progressShown = false
	g.transition(r, StatusErrored)

	if e.Recoverable && r.ErrorCount <= g.RetryLimit {
		g.transition(r, StatusQueued)
	}
	g.view.RenderError(r, e.Message)
}

// CompleteFromServer applies the server's completion payload to r and makes
// it visible.
//
// A payload missing required fields routes to the terminal bad-response
// error path and returns ErrBadServerResponse: the transport already
// considers the transfer successful and cannot be asked to retry.
//
// When the payload's RemoteID duplicates an existing other record, the
// current record is cleared and the pre-existing original is returned
// instead (first-writer-wins).
//
// If no key image is designated yet, the completed record takes the
// designation; the key-changed event is suppressed for records without a
// local filename, i.e. replays of server data rather than fresh uploads.
func (g *Registry) CompleteFromServer(r *Record, img ServerImage) (*Record, error) {
	if !r.Live() {
		return nil, ErrBadServerResponse
	}
	if !img.Valid() {
		g.failTerminal(r, ErrBadServerResponse.Error())
		return nil, ErrBadServerResponse
	}

	if orig := g.FindByRemoteID(img.RemoteID); orig != nil && orig != r {
		g.Clear(r.LocalID)
		return orig, nil
	}

	// A record without a local filename is a replay of server data; its
	// key designation, if any, must not fire the key-changed event. Decide
	// before the payload's filename is copied in.
	replayed := r.Filename == ""

	r.RemoteID = img.RemoteID
	r.ThumbURL = img.ThumbURL
	r.FullURL = img.FullURL
	r.Width = img.Width
	r.Height = img.Height
	r.Horizontal = img.Width > img.Height
	r.FileHandle = ""
	r.progressShown = false
	if replayed && img.Filename != "" {
		r.Filename = img.Filename
	}

	if !g.transition(r, StatusVisible) {
		g.failTerminal(r, ErrBadServerResponse.Error())
		return nil, ErrBadServerResponse
	}
	g.view.RenderVisible(r)

	if g.KeyImage() == nil {
		g.SetKeyImage(r, replayed)
	}
	return r, nil
}

// ToggleDeletion flips a record between visible and marked-for-deletion.
// Exactly one delete marker is added or removed in lockstep with the flip.
// Records in any other state are left untouched.
func (g *Registry) ToggleDeletion(r *Record) {
	if !r.Live() {
		return
	}
	switch r.Status {
	case StatusVisible:
		g.transition(r, StatusDeleting)
		g.form.addDeleteMarker(r.RemoteID)
		g.view.SetDeletionFlag(r, true)
	case StatusDeleting:
		g.transition(r, StatusVisible)
		g.form.removeDeleteMarker(r.RemoteID)
		g.view.SetDeletionFlag(r, false)
	}
}

// Cancel abandons a queued or in-flight upload. Terminal: the record can
// only be cleared afterwards. Aborting the actual I/O is the transport's
// job; the registry only records the outcome.
func (g *Registry) Cancel(r *Record) {
	if !r.Live() {
		return
	}
	g.transition(r, StatusCanceled)
}

// ShouldCancelUpload tells the transport whether to stop retry attempts for
// r: the retry budget is spent.
func (g *Registry) ShouldCancelUpload(r *Record) bool {
	return r != nil && r.ErrorCount > g.RetryLimit
}

// IsRetrying distinguishes a first-time queued record from one requeued
// after an error.
func (g *Registry) IsRetrying(r *Record) bool {
	return r != nil && r.Status == StatusQueued && r.ErrorCount > 0
}

// transition applies a status change if it is legal, reporting whether it
// happened.
func (g *Registry) transition(r *Record, to Status) bool {
	if !r.Status.CanTransition(to) {
		return false
	}
	r.Status = to
	return true
}

// failTerminal puts r into the terminal errored state regardless of retry
// budget and renders the message.
func (g *Registry) failTerminal(r *Record, message string) {
	r.ErrorCount++
	r.progressShown = false
	g.transition(r, StatusErrored)
	// Exhaust the retry budget so the transport stops re-offering the file.
	if r.ErrorCount <= g.RetryLimit {
		r.ErrorCount = g.RetryLimit + 1
	}
	g.view.RenderError(r, message)
}
