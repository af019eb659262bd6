package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
)

// Common errors returned by the glTF importer.
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errNoSkin             = errors.New("glTF document has no skin")
)

const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)

// glTF component types used by animation and skin accessors.
const (
	gltfComponentFloat = 5126
)

// gltfDocument is the subset of a glTF 2.0 document needed to import skeletons
// and animations. Mesh, material and texture data are ignored.
type gltfDocument struct {
	Asset       gltfAsset       `json:"asset"`
	Buffers     []gltfBuffer    `json:"buffers"`
	BufferViews []gltfView      `json:"bufferViews"`
	Accessors   []gltfAccessor  `json:"accessors"`
	Nodes       []gltfNode      `json:"nodes"`
	Skins       []gltfSkin      `json:"skins"`
	Animations  []gltfAnimation `json:"animations"`
}

type gltfAsset struct {
	Version string `json:"version"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`

	Data []byte `json:"-"`
}

type gltfView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride"`
}

type gltfAccessor struct {
	BufferView    *int   `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type gltfNode struct {
	Name        string     `json:"name"`
	Children    []int      `json:"children"`
	Translation *[3]float32 `json:"translation"`
	Rotation    *[4]float32 `json:"rotation"`
	Scale       *[3]float32 `json:"scale"`
	Skin        *int       `json:"skin"`
}

type gltfSkin struct {
	Name   string `json:"name"`
	Joints []int  `json:"joints"`
}

type gltfAnimation struct {
	Name     string             `json:"name"`
	Channels []gltfAnimChannel  `json:"channels"`
	Samplers []gltfAnimSampler  `json:"samplers"`
}

type gltfAnimChannel struct {
	Sampler int            `json:"sampler"`
	Target  gltfAnimTarget `json:"target"`
}

type gltfAnimTarget struct {
	Node *int   `json:"node"`
	Path string `json:"path"`
}

type gltfAnimSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation"`
}

type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

// gltfImporter parses a glTF/GLB file and converts its first skin into a
// skeleton plus the raw animations targeting that skin's joints.
type gltfImporter struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// parse loads and parses a glTF/GLB file, detecting the format from the
// extension or the GLB magic number.
func (p *gltfImporter) parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

// parseReader parses a glTF document from a stream. External buffer URIs are
// not resolvable in this mode.
func (p *gltfImporter) parseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfImporter) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = &doc
	return nil
}

func (p *gltfImporter) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData, binData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}
		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			binData = chunkData
		}
	}
	if jsonData == nil {
		return errMissingJSONChunk
	}
	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = &doc
	return nil
}

// loadBuffers resolves buffer data from data URIs, external files, or the GLB
// binary chunk.
func (p *gltfImporter) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			if i == 0 && p.glbBinaryChunk != nil {
				buf.Data = p.glbBinaryChunk
				continue
			}
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		}

		data, err := p.loadBufferURI(buf.URI)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		buf.Data = data
	}
	return nil
}

func (p *gltfImporter) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		commaIdx := strings.Index(uri, ",")
		if commaIdx < 0 {
			return nil, errInvalidBufferURI
		}
		if !strings.Contains(uri[5:commaIdx], "base64") {
			return nil, fmt.Errorf("unsupported data URI encoding")
		}
		return base64.StdEncoding.DecodeString(uri[commaIdx+1:])
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// readFloatAccessor reads an accessor as tightly packed float32 data with the
// given component count per element (1 for SCALAR, 3 for VEC3, 4 for VEC4).
func (p *gltfImporter) readFloatAccessor(index, components int) ([]float32, error) {
	doc := p.document
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &doc.Accessors[index]
	if acc.ComponentType != gltfComponentFloat {
		return nil, fmt.Errorf("accessor %d: component type %d, want float", index, acc.ComponentType)
	}
	if acc.Count < 0 || acc.Count > 1<<24 {
		return nil, fmt.Errorf("accessor %d: count %d out of range", index, acc.Count)
	}
	if acc.BufferView == nil {
		return make([]float32, acc.Count*components), nil
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: buffer view out of range", index)
	}
	view := &doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("accessor %d: buffer out of range", index)
	}
	data := doc.Buffers[view.Buffer].Data

	elemSize := components * 4
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}

	out := make([]float32, acc.Count*components)
	for e := 0; e < acc.Count; e++ {
		off := view.ByteOffset + acc.ByteOffset + e*stride
		if off+elemSize > len(data) {
			return nil, fmt.Errorf("accessor %d: element %d out of buffer bounds", index, e)
		}
		for c := 0; c < components; c++ {
			bits := binary.LittleEndian.Uint32(data[off+c*4:])
			out[e*components+c] = math.Float32frombits(bits)
		}
	}
	return out, nil
}

// importSkeleton converts a skin into a skeleton with joints ordered so
// parents precede children, and returns the glTF-node-to-joint mapping needed
// to retarget animation channels.
func (p *gltfImporter) importSkeleton(skinIndex int) (*skeleton.Skeleton, map[int]int32, error) {
	doc := p.document
	if len(doc.Skins) == 0 {
		return nil, nil, errNoSkin
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := &doc.Skins[skinIndex]
	if len(skin.Joints) == 0 {
		return nil, nil, fmt.Errorf("skin %d has no joints", skinIndex)
	}

	inSkin := make(map[int]bool, len(skin.Joints))
	for _, n := range skin.Joints {
		if n < 0 || n >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("skin %d: joint node %d out of range", skinIndex, n)
		}
		inSkin[n] = true
	}

	// Parent lookup from the node hierarchy, restricted to skin joints.
	parentOf := make(map[int]int, len(skin.Joints))
	for nodeIdx := range doc.Nodes {
		for _, child := range doc.Nodes[nodeIdx].Children {
			if inSkin[child] && inSkin[nodeIdx] {
				parentOf[child] = nodeIdx
			}
		}
	}

	// Breadth-first from the roots yields a parents-before-children order.
	mapping := make(map[int]int32, len(skin.Joints))
	order := make([]int, 0, len(skin.Joints))
	for _, n := range skin.Joints {
		if _, hasParent := parentOf[n]; !hasParent {
			order = append(order, n)
		}
	}
	if len(order) == 0 {
		return nil, nil, fmt.Errorf("skin %d: no root joint found", skinIndex)
	}
	for i := 0; i < len(order); i++ {
		mapping[order[i]] = int32(i)
		for _, child := range doc.Nodes[order[i]].Children {
			if inSkin[child] && parentOf[child] == order[i] {
				order = append(order, child)
			}
		}
	}
	if len(order) != len(skin.Joints) {
		return nil, nil, fmt.Errorf("skin %d: joint hierarchy is not a tree", skinIndex)
	}

	s := &skeleton.Skeleton{Joints: make([]skeleton.Joint, len(order))}
	for i, nodeIdx := range order {
		node := &doc.Nodes[nodeIdx]
		j := skeleton.Joint{Name: node.Name, ParentIndex: -1, RestPose: common.TransformIdentity()}
		if parent, ok := parentOf[nodeIdx]; ok {
			j.ParentIndex = mapping[parent]
		}
		if node.Translation != nil {
			j.RestPose.Translation = *node.Translation
		}
		if node.Rotation != nil {
			j.RestPose.Rotation = common.QuatNormalize(*node.Rotation)
		}
		if node.Scale != nil {
			j.RestPose.Scale = *node.Scale
		}
		s.Joints[i] = j
	}
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	return s, mapping, nil
}

// importAnimations converts every animation targeting the mapped joints into a
// raw animation with one track per skeleton joint. Cubic-spline samplers are
// reduced to their vertex values; all keys are treated as linear.
func (p *gltfImporter) importAnimations(mapping map[int]int32, jointCount int) ([]*animation.RawAnimation, error) {
	doc := p.document
	out := make([]*animation.RawAnimation, 0, len(doc.Animations))

	for ai := range doc.Animations {
		anim := &doc.Animations[ai]
		raw := &animation.RawAnimation{
			Name:   anim.Name,
			Tracks: make([]animation.JointTrack, jointCount),
		}

		targeted := false
		for ci := range anim.Channels {
			ch := &anim.Channels[ci]
			if ch.Target.Node == nil {
				continue
			}
			jointIdx, ok := mapping[*ch.Target.Node]
			if !ok {
				continue
			}
			if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
				return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", anim.Name, ci, ch.Sampler)
			}
			sampler := &anim.Samplers[ch.Sampler]

			times, err := p.readFloatAccessor(sampler.Input, 1)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: timestamps: %w", anim.Name, ci, err)
			}
			if len(times) == 0 {
				continue
			}
			if t := times[len(times)-1]; t > raw.Duration {
				raw.Duration = t
			}

			tr := &raw.Tracks[jointIdx]
			switch ch.Target.Path {
			case "translation", "scale":
				values, err := p.readFloatAccessor(sampler.Output, 3)
				if err != nil {
					return nil, fmt.Errorf("animation %q channel %d: values: %w", anim.Name, ci, err)
				}
				keys := vectorKeys(times, values, sampler.Interpolation)
				if ch.Target.Path == "translation" {
					tr.Translations = keys
				} else {
					tr.Scales = keys
				}
			case "rotation":
				values, err := p.readFloatAccessor(sampler.Output, 4)
				if err != nil {
					return nil, fmt.Errorf("animation %q channel %d: values: %w", anim.Name, ci, err)
				}
				tr.Rotations = quaternionKeys(times, values, sampler.Interpolation)
			default:
				// Morph target weights and extensions are out of scope.
				continue
			}
			targeted = true
		}

		if !targeted {
			continue
		}
		if err := raw.Validate(); err != nil {
			return nil, fmt.Errorf("animation %q: %w", anim.Name, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// vectorKeys pairs timestamps with vec3 values. Cubic-spline output stores
// in-tangent, vertex, out-tangent triplets; only the vertex is kept.
func vectorKeys(times, values []float32, interpolation string) []animation.VectorKeyframe {
	stride, offset := 1, 0
	if interpolation == "CUBICSPLINE" {
		stride, offset = 3, 1
	}
	keys := make([]animation.VectorKeyframe, 0, len(times))
	for i, t := range times {
		vi := (i*stride + offset) * 3
		if vi+3 > len(values) {
			break
		}
		keys = append(keys, animation.VectorKeyframe{
			Time:  t,
			Value: [3]float32{values[vi], values[vi+1], values[vi+2]},
		})
	}
	return keys
}

func quaternionKeys(times, values []float32, interpolation string) []animation.QuaternionKeyframe {
	stride, offset := 1, 0
	if interpolation == "CUBICSPLINE" {
		stride, offset = 3, 1
	}
	keys := make([]animation.QuaternionKeyframe, 0, len(times))
	for i, t := range times {
		vi := (i*stride + offset) * 4
		if vi+4 > len(values) {
			break
		}
		keys = append(keys, animation.QuaternionKeyframe{
			Time:  t,
			Value: [4]float32{values[vi], values[vi+1], values[vi+2], values[vi+3]},
		})
	}
	return keys
}
