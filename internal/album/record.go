package album

// Record is one entry in the album registry. A record is created either from
// a user-initiated upload (transport supplies FileHandle and Filename) or by
// replaying server-side data on album open (server supplies RemoteID and full
// metadata directly).
type Record struct {
	// LocalID is the client-assigned sequential index, equal to the record's
	// position at creation time. Stable for the record's lifetime, never
	// reused, valid even after tombstoning.
	LocalID int

	// RemoteID is the server-assigned persistent identifier, set once the
	// upload completes. Unique among live records.
	RemoteID string

	// FileHandle correlates transport callbacks back to this record while an
	// upload is pending or in progress.
	FileHandle string

	// Filename is the original upload filename, used for duplicate-by-name
	// detection. Empty for records replayed from server data.
	Filename string

	Status     Status
	ErrorCount int

	// Server display metadata, copied verbatim from the completion payload.
	ThumbURL string
	FullURL  string
	Width    int
	Height   int
	// Horizontal is derived once server metadata arrives: width > height.
	Horizontal bool

	// Tombstoned marks a cleared slot. The slot stays in the arena so that
	// LocalID indexing remains stable; a tombstoned record can never be
	// resurrected.
	Tombstoned bool

	// progressShown tracks whether a progress indicator currently exists for
	// this record, so progress reports can self-heal a skipped start event.
	progressShown bool
}

// Live reports whether r is a usable, non-tombstoned record.
func (r *Record) Live() bool {
	return r != nil && !r.Tombstoned
}
