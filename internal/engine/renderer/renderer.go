// Package renderer draws meshes with flat shading and an optional
// wireframe overlay.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/ttzck/gm-meshproc/internal/engine/model"
	"github.com/ttzck/gm-meshproc/internal/engine/shader"
	"github.com/ttzck/gm-meshproc/pkg/math"
)

const surfaceVertexShader = `#version 410 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vNormal;

void main() {
    vNormal = mat3(uModel) * aNormal;
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
}
`

const surfaceFragmentShader = `#version 410 core
in vec3 vNormal;

uniform vec3 uLightDir;
uniform vec3 uColor;

out vec4 FragColor;

void main() {
    vec3 n = normalize(vNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    float diff = max(dot(n, normalize(uLightDir)), 0.0);
    FragColor = vec4((0.35 + 0.65 * diff) * uColor, 1.0);
}
`

const lineVertexShader = `#version 410 core
layout (location = 0) in vec3 aPosition;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

void main() {
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
}
`

const lineFragmentShader = `#version 410 core
uniform vec3 uColor;

out vec4 FragColor;

void main() {
    FragColor = vec4(uColor, 1.0);
}
`

// Renderer owns the GPU buffers for one mesh.
type Renderer struct {
	log *zap.Logger

	surface *shader.Program
	lines   *shader.Program

	surfaceVAO, surfaceVBO, surfaceEBO uint32
	lineVAO, lineVBO                   uint32
	overlayVAO, overlayVBO             uint32

	indexCount   int32
	lineCount    int32
	overlayCount int32

	// Background is the clear color.
	Background [3]float32
}

// New compiles the shaders. Must be called after the OpenGL context is
// created.
func New(log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{log: log, Background: [3]float32{0.12, 0.12, 0.14}}

	var err error
	if r.surface, err = shader.Compile(surfaceVertexShader, surfaceFragmentShader); err != nil {
		return nil, fmt.Errorf("surface program: %w", err)
	}
	if r.lines, err = shader.Compile(lineVertexShader, lineFragmentShader); err != nil {
		r.surface.Delete()
		return nil, fmt.Errorf("line program: %w", err)
	}

	gl.GenVertexArrays(1, &r.surfaceVAO)
	gl.GenBuffers(1, &r.surfaceVBO)
	gl.GenBuffers(1, &r.surfaceEBO)
	gl.GenVertexArrays(1, &r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.GenVertexArrays(1, &r.overlayVAO)
	gl.GenBuffers(1, &r.overlayVBO)

	stride := int32(unsafe.Sizeof(model.Vertex{}))

	gl.BindVertexArray(r.surfaceVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.surfaceVBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.surfaceEBO)
	// Position attribute (location = 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Normal attribute (location = 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)

	for _, lv := range [...][2]uint32{{r.lineVAO, r.lineVBO}, {r.overlayVAO, r.overlayVBO}} {
		gl.BindVertexArray(lv[0])
		gl.BindBuffer(gl.ARRAY_BUFFER, lv[1])
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 12, 0)
		gl.EnableVertexAttribArray(0)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	log.Debug("renderer created",
		zap.Uint32("surface_program", r.surface.ID),
		zap.Uint32("line_program", r.lines.ID),
	)
	return r, nil
}

// Upload replaces the GPU buffers with m.
func (r *Renderer) Upload(m *model.Mesh) {
	r.indexCount = int32(len(m.Indices))
	r.lineCount = int32(len(m.Lines))

	gl.BindVertexArray(r.surfaceVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.surfaceVBO)
	if len(m.Vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(unsafe.Sizeof(model.Vertex{})), unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)
	}
	if len(m.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	if len(m.Lines) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(m.Lines)*12, unsafe.Pointer(&m.Lines[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.log.Debug("mesh uploaded",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", m.Triangles),
		zap.Int("lines", len(m.Lines)/2),
	)
}

// SetOverlay replaces the overlay line endpoints, drawn in a highlight
// color when Frame.Overlay is set.
func (r *Renderer) SetOverlay(lines [][3]float32) {
	r.overlayCount = int32(len(lines))
	if len(lines) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.overlayVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(lines)*12, unsafe.Pointer(&lines[0]), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Frame holds the matrices and toggles of one draw.
type Frame struct {
	Model      math.Mat4
	View       math.Mat4
	Projection math.Mat4
	Wireframe  bool
	Overlay    bool
}

// Draw clears the framebuffer and draws the uploaded mesh.
func (r *Renderer) Draw(f Frame) {
	gl.ClearColor(r.Background[0], r.Background[1], r.Background[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	if r.indexCount > 0 {
		// Push the surface back so the overlay wins the depth test
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(1, 1)

		r.surface.Use()
		r.surface.SetMat4("uModel", f.Model.Ptr())
		r.surface.SetMat4("uView", f.View.Ptr())
		r.surface.SetMat4("uProjection", f.Projection.Ptr())
		r.surface.SetVec3("uLightDir", [3]float32{0.4, 1.0, 0.6})
		r.surface.SetVec3("uColor", [3]float32{0.75, 0.78, 0.85})

		gl.BindVertexArray(r.surfaceVAO)
		gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, nil)
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}

	wire := f.Wireframe && r.lineCount > 0
	overlay := f.Overlay && r.overlayCount > 0
	if wire || overlay {
		r.lines.Use()
		r.lines.SetMat4("uModel", f.Model.Ptr())
		r.lines.SetMat4("uView", f.View.Ptr())
		r.lines.SetMat4("uProjection", f.Projection.Ptr())
	}
	if wire {
		r.lines.SetVec3("uColor", [3]float32{0.1, 0.1, 0.1})
		gl.BindVertexArray(r.lineVAO)
		gl.DrawArrays(gl.LINES, 0, r.lineCount)
	}
	if overlay {
		r.lines.SetVec3("uColor", [3]float32{0.95, 0.6, 0.1})
		gl.BindVertexArray(r.overlayVAO)
		gl.DrawArrays(gl.LINES, 0, r.overlayCount)
	}

	gl.BindVertexArray(0)
}

// Resize sets the viewport to the drawable size.
func (r *Renderer) Resize(width, height int32) {
	gl.Viewport(0, 0, width, height)
	r.log.Debug("renderer resized", zap.Int32("width", width), zap.Int32("height", height))
}

// ReadPixels returns the RGBA contents of the default framebuffer, bottom
// row first.
func (r *Renderer) ReadPixels(width, height int32) []byte {
	pixels := make([]byte, int(width)*int(height)*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

// Close releases GPU resources.
func (r *Renderer) Close() {
	gl.DeleteVertexArrays(1, &r.surfaceVAO)
	gl.DeleteBuffers(1, &r.surfaceVBO)
	gl.DeleteBuffers(1, &r.surfaceEBO)
	gl.DeleteVertexArrays(1, &r.lineVAO)
	gl.DeleteBuffers(1, &r.lineVBO)
	gl.DeleteVertexArrays(1, &r.overlayVAO)
	gl.DeleteBuffers(1, &r.overlayVBO)
	r.surface.Delete()
	r.lines.Delete()
}
