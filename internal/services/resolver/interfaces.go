package resolver

import (
	"context"

	"github.com/killallgit/delivery-api/internal/models"
)

// Variant resolves inputs for one platform
type Variant interface {
	// Name is the platform the variant produces items for
	Name() models.Platform

	// Matches reports whether the variant accepts value under the given hint
	Matches(value string, hint models.Platform) bool

	// Parse resolves value into a video item
	Parse(ctx context.Context, value string) (*models.VideoItem, error)
}

// Resolver maps raw input strings to video items
type Resolver interface {
	Resolve(ctx context.Context, input string, hint models.Platform) (*models.VideoItem, error)
}
