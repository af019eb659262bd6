package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/Carmen-Shannon/stride-go/engine/track"
)

// Common errors returned by the archive codec.
var (
	ErrInvalidArchive     = errors.New("loader: invalid archive")
	ErrUnsupportedVersion = errors.New("loader: unsupported archive version")
)

// Archive magic tags, one per asset kind. Version is bumped when a payload
// layout changes; readers reject versions they do not know.
var (
	magicSkeleton  = [4]byte{'S', 'K', 'E', 'L'}
	magicAnimation = [4]byte{'A', 'N', 'I', 'M'}
	magicMotion    = [4]byte{'M', 'T', 'R', 'K'}
)

const archiveVersion uint32 = 1

// archiveWriter wraps an io.Writer with little-endian primitive writes and
// sticky error handling so serialization code stays linear.
type archiveWriter struct {
	w   io.Writer
	err error
}

func (a *archiveWriter) put(v any) {
	if a.err != nil {
		return
	}
	a.err = binary.Write(a.w, binary.LittleEndian, v)
}

func (a *archiveWriter) putString(s string) {
	a.put(uint32(len(s)))
	if a.err != nil {
		return
	}
	_, a.err = io.WriteString(a.w, s)
}

func (a *archiveWriter) header(magic [4]byte) {
	a.put(magic)
	a.put(archiveVersion)
}

// archiveReader mirrors archiveWriter for deserialization.
type archiveReader struct {
	r   io.Reader
	err error
}

func (a *archiveReader) get(v any) {
	if a.err != nil {
		return
	}
	a.err = binary.Read(a.r, binary.LittleEndian, v)
}

func (a *archiveReader) getU32() uint32 {
	var v uint32
	a.get(&v)
	return v
}

// getCount reads an element count, rejecting sizes no sane asset would reach
// before they turn into huge allocations.
func (a *archiveReader) getCount() int {
	n := a.getU32()
	if a.err == nil && n > 1<<24 {
		a.err = fmt.Errorf("%w: element count %d", ErrInvalidArchive, n)
		return 0
	}
	return int(n)
}

func (a *archiveReader) getString() string {
	n := a.getU32()
	if a.err != nil {
		return ""
	}
	// Cap pathological lengths before allocating.
	if n > 1<<20 {
		a.err = fmt.Errorf("%w: string length %d", ErrInvalidArchive, n)
		return ""
	}
	buf := make([]byte, n)
	_, a.err = io.ReadFull(a.r, buf)
	return string(buf)
}

func (a *archiveReader) header(want [4]byte) {
	var magic [4]byte
	a.get(&magic)
	if a.err != nil {
		return
	}
	if magic != want {
		a.err = fmt.Errorf("%w: magic %q, want %q", ErrInvalidArchive, magic[:], want[:])
		return
	}
	if v := a.getU32(); a.err == nil && v != archiveVersion {
		a.err = fmt.Errorf("%w: version %d", ErrUnsupportedVersion, v)
	}
}

// SaveSkeleton serializes a skeleton to the binary archive format.
//
// Parameters:
//   - w: the destination writer
//   - s: the skeleton to serialize
//
// Returns:
//   - error: write errors, or skeleton.ErrInvalidSkeleton for invalid input
func SaveSkeleton(w io.Writer, s *skeleton.Skeleton) error {
	if s == nil {
		return fmt.Errorf("%w: nil skeleton", skeleton.ErrInvalidSkeleton)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	a := &archiveWriter{w: w}
	a.header(magicSkeleton)
	a.put(uint32(len(s.Joints)))
	for i := range s.Joints {
		j := &s.Joints[i]
		a.putString(j.Name)
		a.put(j.ParentIndex)
		putTransform(a, j.RestPose)
	}
	return a.err
}

// LoadSkeletonReader deserializes a skeleton from the binary archive format and
// validates it.
//
// Parameters:
//   - r: the source reader
//
// Returns:
//   - *skeleton.Skeleton: the loaded skeleton
//   - error: ErrInvalidArchive, ErrUnsupportedVersion or validation errors
func LoadSkeletonReader(r io.Reader) (*skeleton.Skeleton, error) {
	a := &archiveReader{r: r}
	a.header(magicSkeleton)
	n := a.getCount()
	if a.err != nil {
		return nil, a.err
	}

	s := &skeleton.Skeleton{Joints: make([]skeleton.Joint, n)}
	for i := range s.Joints {
		s.Joints[i].Name = a.getString()
		a.get(&s.Joints[i].ParentIndex)
		s.Joints[i].RestPose = getTransform(a)
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveAnimation serializes a raw animation to the binary archive format. Raw
// data is archived rather than the compiled runtime form so offline tools can
// re-extract or re-optimize without loss.
//
// Parameters:
//   - w: the destination writer
//   - raw: the animation to serialize
//
// Returns:
//   - error: write errors, or animation.ErrInvalidAnimation for invalid input
func SaveAnimation(w io.Writer, raw *animation.RawAnimation) error {
	if raw == nil {
		return fmt.Errorf("%w: nil animation", animation.ErrInvalidAnimation)
	}
	if err := raw.Validate(); err != nil {
		return err
	}

	a := &archiveWriter{w: w}
	a.header(magicAnimation)
	a.putString(raw.Name)
	a.put(raw.Duration)
	a.put(uint32(len(raw.Tracks)))
	for i := range raw.Tracks {
		tr := &raw.Tracks[i]
		a.put(uint32(len(tr.Translations)))
		for _, k := range tr.Translations {
			a.put(k.Time)
			a.put(k.Value)
		}
		a.put(uint32(len(tr.Rotations)))
		for _, k := range tr.Rotations {
			a.put(k.Time)
			a.put(k.Value)
		}
		a.put(uint32(len(tr.Scales)))
		for _, k := range tr.Scales {
			a.put(k.Time)
			a.put(k.Value)
		}
	}
	return a.err
}

// LoadAnimationReader deserializes a raw animation from the binary archive
// format and validates it.
//
// Parameters:
//   - r: the source reader
//
// Returns:
//   - *animation.RawAnimation: the loaded animation
//   - error: ErrInvalidArchive, ErrUnsupportedVersion or validation errors
func LoadAnimationReader(r io.Reader) (*animation.RawAnimation, error) {
	a := &archiveReader{r: r}
	a.header(magicAnimation)

	raw := &animation.RawAnimation{}
	raw.Name = a.getString()
	a.get(&raw.Duration)
	n := a.getCount()
	if a.err != nil {
		return nil, a.err
	}

	raw.Tracks = make([]animation.JointTrack, n)
	for i := range raw.Tracks {
		tr := &raw.Tracks[i]
		tr.Translations = make([]animation.VectorKeyframe, a.getCount())
		for j := range tr.Translations {
			a.get(&tr.Translations[j].Time)
			a.get(&tr.Translations[j].Value)
		}
		tr.Rotations = make([]animation.QuaternionKeyframe, a.getCount())
		for j := range tr.Rotations {
			a.get(&tr.Rotations[j].Time)
			a.get(&tr.Rotations[j].Value)
		}
		tr.Scales = make([]animation.VectorKeyframe, a.getCount())
		for j := range tr.Scales {
			a.get(&tr.Scales[j].Time)
			a.get(&tr.Scales[j].Value)
		}
		if a.err != nil {
			return nil, a.err
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return raw, nil
}

// SaveMotionTrack serializes extracted motion curves and their loop flags to
// the binary archive format. As with animations the raw form is archived.
//
// Parameters:
//   - w: the destination writer
//   - pos: the extracted position curve
//   - rot: the extracted rotation curve
//   - posLoop: whether the position channel was extracted as periodic
//   - rotLoop: whether the rotation channel was extracted as periodic
//
// Returns:
//   - error: write errors, or track.ErrInvalidTrack for invalid input
func SaveMotionTrack(w io.Writer, pos track.RawFloat3Track, rot track.RawQuaternionTrack, posLoop, rotLoop bool) error {
	if err := pos.Validate(); err != nil {
		return err
	}
	if err := rot.Validate(); err != nil {
		return err
	}

	a := &archiveWriter{w: w}
	a.header(magicMotion)
	a.putString(pos.Name)
	a.put(uint32(len(pos.Keyframes)))
	for _, k := range pos.Keyframes {
		a.put(k.Ratio)
		a.put(k.Value)
		a.put(uint8(k.Interpolation))
	}
	a.putString(rot.Name)
	a.put(uint32(len(rot.Keyframes)))
	for _, k := range rot.Keyframes {
		a.put(k.Ratio)
		a.put(k.Value)
		a.put(uint8(k.Interpolation))
	}
	a.put(posLoop)
	a.put(rotLoop)
	return a.err
}

// loadMotionTrackRaw deserializes motion curves and loop flags from the binary
// archive format. Compilation to the runtime form happens in the Loader so the
// raw data is also available to offline tools.
func loadMotionTrackRaw(r io.Reader) (track.RawFloat3Track, track.RawQuaternionTrack, bool, bool, error) {
	var pos track.RawFloat3Track
	var rot track.RawQuaternionTrack

	a := &archiveReader{r: r}
	a.header(magicMotion)
	pos.Name = a.getString()
	pos.Keyframes = make([]track.Float3Keyframe, a.getCount())
	for i := range pos.Keyframes {
		a.get(&pos.Keyframes[i].Ratio)
		a.get(&pos.Keyframes[i].Value)
		var interp uint8
		a.get(&interp)
		pos.Keyframes[i].Interpolation = track.Interpolation(interp)
	}
	rot.Name = a.getString()
	rot.Keyframes = make([]track.QuaternionKeyframe, a.getCount())
	for i := range rot.Keyframes {
		a.get(&rot.Keyframes[i].Ratio)
		a.get(&rot.Keyframes[i].Value)
		var interp uint8
		a.get(&interp)
		rot.Keyframes[i].Interpolation = track.Interpolation(interp)
	}
	var posLoop, rotLoop bool
	a.get(&posLoop)
	a.get(&rotLoop)
	if a.err != nil {
		return pos, rot, false, false, a.err
	}
	return pos, rot, posLoop, rotLoop, nil
}

func putTransform(a *archiveWriter, t common.Transform) {
	a.put(t.Translation)
	a.put(t.Rotation)
	a.put(t.Scale)
}

func getTransform(a *archiveReader) common.Transform {
	var t common.Transform
	a.get(&t.Translation)
	a.get(&t.Rotation)
	a.get(&t.Scale)
	return t
}
