package galaxy

import "fmt"

// NotFoundError means a collection (or one of its releases) does not
// exist on the Galaxy server.
type NotFoundError struct {
	Collection string
	URL        string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("galaxy: no collection found for %s at %s", e.Collection, e.URL)
}

// NoSuchVersionError means no version of a collection satisfied a
// version constraint.
type NoSuchVersionError struct {
	Collection string
	Constraint string
}

func (e *NoSuchVersionError) Error() string {
	return fmt.Sprintf("galaxy: %s did not match any version of %s", e.Constraint, e.Collection)
}

// DownloadError means a release tarball failed to download correctly,
// usually a checksum mismatch.
type DownloadError struct {
	URL    string
	Reason string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("galaxy: download of %s failed: %s", e.URL, e.Reason)
}
