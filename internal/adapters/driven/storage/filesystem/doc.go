// Package filesystem stores sample binaries and project directories on disk.
//
// Layout under the storage root:
//
//	<root>/binaries/a/b/c/d/<sha256>        default project
//	<root>/projects/<name>/binaries/...     named projects
//
// Binaries are content addressed: the first four hex digits of the sha256
// become nested directories.
package filesystem
