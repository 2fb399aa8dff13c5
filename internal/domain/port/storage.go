package port

import "context"

// ArtifactStorage archives a participant's output directory to remote
// storage after a successful run.
type ArtifactStorage interface {
	UploadArtifacts(ctx context.Context, participant, dir string) error
}
