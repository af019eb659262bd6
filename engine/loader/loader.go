// Package loader imports animation assets: a versioned binary archive format
// for skeletons, raw animations and extracted motion tracks, a glTF/GLB
// importer for authored source data, and YAML documents for extraction
// settings. Loaded assets are cached by path.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/motion"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/Carmen-Shannon/stride-go/engine/track"
)

// Loader loads and caches animation assets. Archive files are detected by
// content; .gltf/.glb files go through the glTF importer. Thread-safe for
// concurrent access.
type Loader interface {
	// LoadSkeleton loads a skeleton from an archive file, or from the first
	// skin of a glTF/GLB file. Cached by path.
	//
	// Parameters:
	//   - path: the asset file path
	//
	// Returns:
	//   - *skeleton.Skeleton: the loaded skeleton
	//   - error: file, format or validation errors
	LoadSkeleton(path string) (*skeleton.Skeleton, error)

	// LoadAnimation loads a raw animation from an archive file and compiles it
	// to the runtime form. Cached by path.
	//
	// Parameters:
	//   - path: the archive file path
	//
	// Returns:
	//   - *animation.Animation: the compiled animation
	//   - error: file, format or validation errors
	LoadAnimation(path string) (*animation.Animation, error)

	// LoadMotionTrack loads extracted motion curves from an archive file and
	// compiles them to a runtime motion track. Cached by path.
	//
	// Parameters:
	//   - path: the archive file path
	//
	// Returns:
	//   - *motion.MotionTrack: the compiled motion track
	//   - error: file, format or validation errors
	LoadMotionTrack(path string) (*motion.MotionTrack, error)

	// ImportGLTF parses a glTF/GLB file and returns the skeleton of its first
	// skin plus every raw animation targeting that skin, ready for motion
	// extraction. The skeleton is cached by path; raw animations are not
	// cached since they usually feed the extraction pipeline once.
	//
	// Parameters:
	//   - path: the glTF or GLB file path
	//
	// Returns:
	//   - *skeleton.Skeleton: the imported skeleton
	//   - []*animation.RawAnimation: the imported animations
	//   - error: file, format or validation errors
	ImportGLTF(path string) (*skeleton.Skeleton, []*animation.RawAnimation, error)

	// ImportGLTFReader imports from a stream, caching the skeleton under the
	// given name. External buffer URIs cannot be resolved in this mode.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the reader providing glTF JSON or GLB data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *skeleton.Skeleton: the imported skeleton
	//   - []*animation.RawAnimation: the imported animations
	//   - error: format or validation errors
	ImportGLTFReader(name string, r io.Reader, isGLB bool) (*skeleton.Skeleton, []*animation.RawAnimation, error)

	// Skeleton returns a cached skeleton by path, or nil.
	Skeleton(path string) *skeleton.Skeleton

	// Animation returns a cached animation by path, or nil.
	Animation(path string) *animation.Animation

	// MotionTrack returns a cached motion track by path, or nil.
	MotionTrack(path string) *motion.MotionTrack

	// Clear drops all cached assets.
	Clear()
}

type loader struct {
	mu sync.RWMutex

	skeletonCache map[string]*skeleton.Skeleton
	animCache     map[string]*animation.Animation
	motionCache   map[string]*motion.MotionTrack
}

var _ Loader = &loader{}

// NewLoader creates a loader with empty caches.
//
// Parameters:
//   - options: functional options to further configure the loader
//
// Returns:
//   - Loader: the newly created loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		skeletonCache: make(map[string]*skeleton.Skeleton),
		animCache:     make(map[string]*animation.Animation),
		motionCache:   make(map[string]*motion.MotionTrack),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) LoadSkeleton(path string) (*skeleton.Skeleton, error) {
	l.mu.RLock()
	if s, ok := l.skeletonCache[path]; ok {
		l.mu.RUnlock()
		return s, nil
	}
	l.mu.RUnlock()

	if isGLTFPath(path) {
		s, _, err := l.ImportGLTF(path)
		return s, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	s, err := LoadSkeletonReader(f)
	if err != nil {
		return nil, fmt.Errorf("loader: skeleton %q: %w", path, err)
	}

	l.mu.Lock()
	l.skeletonCache[path] = s
	l.mu.Unlock()
	return s, nil
}

func (l *loader) LoadAnimation(path string) (*animation.Animation, error) {
	l.mu.RLock()
	if a, ok := l.animCache[path]; ok {
		l.mu.RUnlock()
		return a, nil
	}
	l.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	raw, err := LoadAnimationReader(f)
	if err != nil {
		return nil, fmt.Errorf("loader: animation %q: %w", path, err)
	}
	anim, err := animation.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("loader: animation %q: %w", path, err)
	}

	l.mu.Lock()
	l.animCache[path] = anim
	l.mu.Unlock()
	return anim, nil
}

func (l *loader) LoadMotionTrack(path string) (*motion.MotionTrack, error) {
	l.mu.RLock()
	if mt, ok := l.motionCache[path]; ok {
		l.mu.RUnlock()
		return mt, nil
	}
	l.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	rawPos, rawRot, posLoop, rotLoop, err := loadMotionTrackRaw(f)
	if err != nil {
		return nil, fmt.Errorf("loader: motion track %q: %w", path, err)
	}

	// Archived curves were optimized at extraction time; compile as-is.
	pos, err := track.BuildFloat3Track(rawPos)
	if err != nil {
		return nil, fmt.Errorf("loader: motion track %q: %w", path, err)
	}
	rot, err := track.BuildQuaternionTrack(rawRot)
	if err != nil {
		return nil, fmt.Errorf("loader: motion track %q: %w", path, err)
	}
	mt := &motion.MotionTrack{Position: pos, Rotation: rot, PositionLoop: posLoop, RotationLoop: rotLoop}

	l.mu.Lock()
	l.motionCache[path] = mt
	l.mu.Unlock()
	return mt, nil
}

func (l *loader) ImportGLTF(path string) (*skeleton.Skeleton, []*animation.RawAnimation, error) {
	p := &gltfImporter{}
	if err := p.parse(path); err != nil {
		return nil, nil, fmt.Errorf("loader: glTF %q: %w", path, err)
	}
	return l.finishImport(path, p)
}

func (l *loader) ImportGLTFReader(name string, r io.Reader, isGLB bool) (*skeleton.Skeleton, []*animation.RawAnimation, error) {
	p := &gltfImporter{}
	if err := p.parseReader(r, isGLB); err != nil {
		return nil, nil, fmt.Errorf("loader: glTF %q: %w", name, err)
	}
	return l.finishImport(name, p)
}

func (l *loader) finishImport(key string, p *gltfImporter) (*skeleton.Skeleton, []*animation.RawAnimation, error) {
	s, mapping, err := p.importSkeleton(0)
	if err != nil {
		return nil, nil, fmt.Errorf("loader: glTF %q: %w", key, err)
	}
	anims, err := p.importAnimations(mapping, s.NumJoints())
	if err != nil {
		return nil, nil, fmt.Errorf("loader: glTF %q: %w", key, err)
	}

	l.mu.Lock()
	l.skeletonCache[key] = s
	l.mu.Unlock()
	return s, anims, nil
}

func (l *loader) Skeleton(path string) *skeleton.Skeleton {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.skeletonCache[path]
}

func (l *loader) Animation(path string) *animation.Animation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.animCache[path]
}

func (l *loader) MotionTrack(path string) *motion.MotionTrack {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.motionCache[path]
}

func (l *loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.skeletonCache = make(map[string]*skeleton.Skeleton)
	l.animCache = make(map[string]*animation.Animation)
	l.motionCache = make(map[string]*motion.MotionTrack)
}

func isGLTFPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".gltf" || ext == ".glb"
}
