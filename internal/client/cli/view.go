package cli

import (
	"fmt"
	"io"

	"github.com/mealbook/mealbook/internal/album"
)

// TermView renders album slot updates as terminal lines, one per event.
// Slots are addressed by their local number in square brackets, which is
// also what the key/del/order commands take as arguments.
type TermView struct {
	out io.Writer
}

func NewTermView(out io.Writer) *TermView {
	return &TermView{out: out}
}

func (v *TermView) ShowPlaceholder() {
	fmt.Fprintln(v.out, "(album is empty)")
}

func (v *TermView) HidePlaceholder() {}

func (v *TermView) RenderQueued(r *album.Record) {
	fmt.Fprintf(v.out, "[%d] queued: %s\n", r.LocalID, r.Filename)
}

func (v *TermView) RenderUploading(r *album.Record) {
	fmt.Fprintf(v.out, "[%d] uploading: %s\n", r.LocalID, r.Filename)
}

func (v *TermView) UpdateProgress(r *album.Record, percent float64) {
	fmt.Fprintf(v.out, "[%d] %3.0f%%\n", r.LocalID, percent)
}

func (v *TermView) ShowProcessing(r *album.Record) {
	fmt.Fprintf(v.out, "[%d] processing...\n", r.LocalID)
}

func (v *TermView) RenderError(r *album.Record, message string) {
	fmt.Fprintf(v.out, "[%d] error: %s\n", r.LocalID, message)
}

func (v *TermView) RenderVisible(r *album.Record) {
	fmt.Fprintf(v.out, "[%d] %dx%d %s\n", r.LocalID, r.Width, r.Height, r.ThumbURL)
}

func (v *TermView) RemoveSlot(r *album.Record) {
	fmt.Fprintf(v.out, "[%d] removed\n", r.LocalID)
}

func (v *TermView) MarkKey(r *album.Record) {
	fmt.Fprintf(v.out, "[%d] is now the key picture\n", r.LocalID)
}

func (v *TermView) UnmarkKey(r *album.Record) {}

func (v *TermView) SetDeletionFlag(r *album.Record, marked bool) {
	if marked {
		fmt.Fprintf(v.out, "[%d] marked for deletion\n", r.LocalID)
	} else {
		fmt.Fprintf(v.out, "[%d] deletion unmarked\n", r.LocalID)
	}
}
