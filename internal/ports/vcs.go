package ports

import "context"

// VCSPort answers read-only version-control questions about a checkout.
type VCSPort interface {
	IsRepository(ctx context.Context, path string) bool
	CurrentRef(ctx context.Context, path string) (string, error)
	ShortRevision(ctx context.Context, path string) (string, error)
	RemoteURL(ctx context.Context, path string, remote string) (string, error)
}
