package loader

import (
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
)

// LoaderBuilderOption configures a loader during construction.
type LoaderBuilderOption func(*loader)

// WithSkeleton pre-seeds the cache with a skeleton under the given key, useful
// for assets built in code or embedded in the binary.
//
// Parameters:
//   - key: the cache key
//   - s: the skeleton to cache
//
// Returns:
//   - LoaderBuilderOption: the option to apply
func WithSkeleton(key string, s *skeleton.Skeleton) LoaderBuilderOption {
	return func(l *loader) {
		l.skeletonCache[key] = s
	}
}

// WithAnimation pre-seeds the cache with a compiled animation under the given
// key.
//
// Parameters:
//   - key: the cache key
//   - a: the animation to cache
//
// Returns:
//   - LoaderBuilderOption: the option to apply
func WithAnimation(key string, a *animation.Animation) LoaderBuilderOption {
	return func(l *loader) {
		l.animCache[key] = a
	}
}
