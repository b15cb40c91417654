package album

// View is the rendering collaborator. The registry tells it what happened to
// each record; how slots are actually drawn is not the core's concern.
// Implementations must tolerate repeated calls for the same record.
type View interface {
	// ShowPlaceholder displays the "no pictures yet" placeholder.
	ShowPlaceholder()
	// HidePlaceholder removes the placeholder once the first record exists.
	HidePlaceholder()

	// RenderQueued draws a freshly queued upload slot.
	RenderQueued(r *Record)
	// RenderUploading draws the uploading state with a progress indicator.
	RenderUploading(r *Record)
	// UpdateProgress moves the progress indicator to percent (0..100).
	UpdateProgress(r *Record, percent float64)
	// ShowProcessing surfaces the post-transfer processing notice shown when
	// the transfer is essentially done but the server is still working.
	ShowProcessing(r *Record)
	// RenderError replaces the slot content with an error description and a
	// clear affordance.
	RenderError(r *Record, message string)
	// RenderVisible draws the server-confirmed image with its affordances.
	RenderVisible(r *Record)
	// RemoveSlot removes the record's visual representation entirely.
	RemoveSlot(r *Record)

	// MarkKey applies the key-image marking to the record's slot.
	MarkKey(r *Record)
	// UnmarkKey removes the key-image marking.
	UnmarkKey(r *Record)

	// SetDeletionFlag toggles the marked-for-deletion styling.
	SetDeletionFlag(r *Record, marked bool)
}

// NopView is a View that does nothing. Useful for headless sessions and
// tests that only exercise registry semantics.
type NopView struct{}

func (NopView) ShowPlaceholder()                {}
func (NopView) HidePlaceholder()                {}
func (NopView) RenderQueued(*Record)            {}
func (NopView) RenderUploading(*Record)         {}
func (NopView) UpdateProgress(*Record, float64) {}
func (NopView) ShowProcessing(*Record)          {}
func (NopView) RenderError(*Record, string)     {}
func (NopView) RenderVisible(*Record)           {}
func (NopView) RemoveSlot(*Record)              {}
func (NopView) MarkKey(*Record)                 {}
func (NopView) UnmarkKey(*Record)               {}
func (NopView) SetDeletionFlag(*Record, bool)   {}
