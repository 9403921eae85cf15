package safety

import "errors"

var (
	// ErrUnsafeDirectory rejects an install destination.
	ErrUnsafeDirectory = errors.New("unsafe directory")

	// ErrUnsafeDeletion rejects a deletion request.
	ErrUnsafeDeletion = errors.New("unsafe deletion")

	// ErrRunningAsRoot is returned whenever the effective user is root.
	ErrRunningAsRoot = errors.New("running as root")

	// ErrUnexpectedDirectory is returned when a file was expected but a directory was found.
	ErrUnexpectedDirectory = errors.New("expected file but found directory")

	// ErrNotFound is returned when nothing exists at the deletion path.
	ErrNotFound = errors.New("path does not exist")

	// ErrUnknownEntryKind is returned for entries that are neither file, directory nor symlink.
	ErrUnknownEntryKind = errors.New("unrecognized filesystem entry")
)
