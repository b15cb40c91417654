package album

// FormState mirrors the hidden form fields the surrounding page submits.
// The registry keeps it in lockstep with record status so the two
// representations never diverge.
type FormState struct {
	// SortOrder is the comma-joined list of RemoteIDs in current visual
	// order, skipping records that have no RemoteID yet.
	SortOrder string

	// KeyImage is the RemoteID of the designated key image, or the empty
	// string when none is designated.
	KeyImage string

	deleteMarkers []string
}

// DeleteMarkers returns the RemoteIDs currently marked for deletion, one
// marker per marked image.
func (f *FormState) DeleteMarkers() []string {
	out := make([]string, len(f.deleteMarkers))
	copy(out, f.deleteMarkers)
	return out
}

func (f *FormState) addDeleteMarker(remoteID string) {
	f.deleteMarkers = append(f.deleteMarkers, remoteID)
}

// removeDeleteMarker removes one occurrence of remoteID, keeping marker
// count and deletion toggles in lockstep.
func (f *FormState) removeDeleteMarker(remoteID string) {
	for i, id := range f.deleteMarkers {
		if id == remoteID {
			f.deleteMarkers = append(f.deleteMarkers[:i], f.deleteMarkers[i+1:]...)
			return
		}
	}
}
