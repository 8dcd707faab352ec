package domain

// SessionSample is the sample a session currently points at.
type SessionSample struct {
	// Path is the file the session was opened on.
	Path string

	// Sample holds the digests and, when the sample is stored in the
	// active project, its name and tags.
	Sample Sample

	// Stored is true when the sample exists in the active project's database.
	Stored bool
}
