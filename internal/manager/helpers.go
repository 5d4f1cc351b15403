package manager

import "io"

// closeArtifact releases a with Close when it implements io.Closer.
func closeArtifact(a Artifact) error {
	if c, ok := a.(io.Closer); ok && c != nil {
		return c.Close()
	}
	return nil
}
