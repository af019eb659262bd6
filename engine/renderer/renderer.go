// Package renderer draws debug geometry for the viewer programs: skeleton
// postures, accumulated motion trails, and ground grids, batched as colored
// lines and rendered through WebGPU.
package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lucasb-eyer/go-colorful"
)

// lineVertex is the GPU vertex layout: position then straight-alpha color.
type lineVertex struct {
	Position [3]float32
	Color    [4]float32
}

const lineVertexStride = 7 * 4

const lineShaderWGSL = `
struct Camera {
    vp: mat4x4<f32>,
};
@group(0) @binding(0) var<uniform> camera: Camera;

struct VSIn {
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
};

struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(in: VSIn) -> VSOut {
    var out: VSOut;
    out.position = camera.vp * vec4<f32>(in.position, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    return in.color;
}
`

// Renderer batches colored line segments and draws them once per frame.
// Thread-safe for concurrent access; frame lifecycle calls must come from the
// thread that owns the window.
type Renderer interface {
	// Configure (re)configures the surface and depth buffer for a framebuffer
	// size. Call once after creation and again on every resize.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	Configure(width, height int)

	// SetViewProjection sets the camera matrix used for the next frame.
	//
	// Parameters:
	//   - vp: the column-major view-projection matrix
	SetViewProjection(vp [16]float32)

	// DrawLine appends one line segment to the current batch.
	//
	// Parameters:
	//   - from: segment start in world space
	//   - to: segment end in world space
	//   - color: segment color
	DrawLine(from, to [3]float32, color colorful.Color)

	// Frame acquires the swapchain texture, uploads the batched lines, renders
	// them and presents. The batch is cleared afterwards.
	//
	// Returns:
	//   - error: surface acquisition or encoding errors; the batch is dropped
	Frame() error

	// Release frees all GPU resources.
	Release()
}

type lineRenderer struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat    wgpu.TextureFormat
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	pipeline     *wgpu.RenderPipeline
	uniformBuf   *wgpu.Buffer
	bindGroup    *wgpu.BindGroup
	vertexBuf    *wgpu.Buffer
	vertexBufCap int

	presentMode wgpu.PresentMode
	clearColor  wgpu.Color

	viewProjection [16]float32
	vertices       []lineVertex
}

var _ Renderer = &lineRenderer{}

// NewRenderer creates a line renderer on the given surface. Panics if no
// adapter or device is available, mirroring the fail-fast GPU setup used
// elsewhere in the engine.
//
// Parameters:
//   - surfaceDescriptor: the platform surface from the window
//   - options: functional options to further configure the renderer
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...RendererBuilderOption) Renderer {
	r := &lineRenderer{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.08, G: 0.09, B: 0.11, A: 1},
	}
	common.Identity(r.viewProjection[:])

	r.surface = r.instance.CreateSurface(surfaceDescriptor)

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: r.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: no compatible adapter: %v", err))
	}
	r.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Line Renderer Device",
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: no device: %v", err))
	}
	r.device = device
	r.queue = device.GetQueue()

	for _, option := range options {
		option(r)
	}
	return r
}

func (r *lineRenderer) Configure(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capabilities := r.surface.GetCapabilities(r.adapter)
	r.surfaceFormat = capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if r.depthTextureView != nil {
		r.depthTextureView.Release()
		r.depthTexture.Release()
	}
	depthTexture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Line Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: depth texture: %v", err))
	}
	r.depthTexture = depthTexture
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		panic(fmt.Sprintf("renderer: depth view: %v", err))
	}
	r.depthTextureView = view

	if r.pipeline == nil {
		r.initPipeline()
	}
}

// initPipeline builds the single line-list pipeline and its camera uniform.
// Callers must hold the mutex.
func (r *lineRenderer) initPipeline() {
	module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "line",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: lineShaderWGSL,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: shader: %v", err))
	}

	layout, err := r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Line Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: bind group layout: %v", err))
	}

	r.uniformBuf, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Line Camera Uniform",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: uniform buffer: %v", err))
	}

	r.bindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Line Camera Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  r.uniformBuf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: bind group: %v", err))
	}

	pipelineLayout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Line Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: pipeline layout: %v", err))
	}

	r.pipeline, err = r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Line Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: lineVertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    r.surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyLineList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: pipeline: %v", err))
	}
}

func (r *lineRenderer) SetViewProjection(vp [16]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewProjection = vp
}

func (r *lineRenderer) DrawLine(from, to [3]float32, color colorful.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := [4]float32{float32(color.R), float32(color.G), float32(color.B), 1}
	r.vertices = append(r.vertices,
		lineVertex{Position: from, Color: c},
		lineVertex{Position: to, Color: c},
	)
}

func (r *lineRenderer) Frame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	verts := r.vertices
	r.vertices = r.vertices[:0]
	if r.pipeline == nil {
		return fmt.Errorf("renderer: not configured")
	}

	r.queue.WriteBuffer(r.uniformBuf, 0, common.SliceToBytes(r.viewProjection[:]))

	if len(verts) > 0 {
		if err := r.uploadVertices(verts); err != nil {
			return err
		}
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: acquire surface: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("renderer: surface view: %w", err)
	}
	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("renderer: encoder: %w", err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.clearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if len(verts) > 0 {
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.bindGroup, nil)
		pass.SetVertexBuffer(0, r.vertexBuf, 0, wgpu.WholeSize)
		pass.Draw(uint32(len(verts)), 1, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("renderer: finish: %w", err)
	}
	r.queue.Submit(commandBuffer)
	r.surface.Present()

	commandBuffer.Release()
	encoder.Release()
	view.Release()
	surfaceTexture.Release()
	return nil
}

// uploadVertices copies the batch to the GPU, growing the vertex buffer when
// the batch outgrows it. Callers must hold the mutex.
func (r *lineRenderer) uploadVertices(verts []lineVertex) error {
	needed := len(verts) * lineVertexStride
	if r.vertexBuf == nil || r.vertexBufCap < needed {
		if r.vertexBuf != nil {
			r.vertexBuf.Release()
		}
		capacity := 1 << 12
		for capacity < needed {
			capacity <<= 1
		}
		buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Line Vertex Buffer",
			Size:  uint64(capacity),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("renderer: vertex buffer: %w", err)
		}
		r.vertexBuf = buf
		r.vertexBufCap = capacity
	}
	r.queue.WriteBuffer(r.vertexBuf, 0, common.SliceToBytes(verts))
	return nil
}

func (r *lineRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vertexBuf != nil {
		r.vertexBuf.Release()
	}
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
	}
	if r.depthTextureView != nil {
		r.depthTextureView.Release()
		r.depthTexture.Release()
	}
	if r.device != nil {
		r.device.Release()
	}
}
