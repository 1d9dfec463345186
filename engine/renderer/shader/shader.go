package shader

import (
	"fmt"
	"os"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// ShaderType is the pipeline stage a shader module is used for.
type ShaderType int

const (
	// ShaderTypeVertex is a vertex stage shader. Its @location input struct defines the vertex buffer layout.
	ShaderTypeVertex ShaderType = iota
	// ShaderTypeFragment is a fragment stage shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// Visibility returns the shader stage flag bindings declared in this shader are visible to.
func (t ShaderType) Visibility() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}

type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	vertexLayouts              []wgpu.VertexBufferLayout
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
}

// Shader is a reflected WGSL shader module: the source plus everything a pipeline needs to be built from it.
type Shader interface {
	// Key returns the unique identifier of the shader.
	Key() string

	// Source returns the WGSL source.
	Source() string

	// ShaderType returns the stage the shader is used for.
	ShaderType() ShaderType

	// EntryPoint returns the name of the first entry point function for the shader's stage.
	EntryPoint() string

	// VertexLayouts returns one buffer layout per @location input struct, in declaration order.
	// Only vertex shaders have vertex layouts.
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptor returns the layout of bind group group as declared by this shader.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: entries sorted by binding, empty if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every declared bind group layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindingVarName returns the WGSL variable name declared at group/binding, or "".
	BindingVarName(group, binding int) string

	// Module returns the descriptor used to create the device shader module.
	Module() *wgpu.ShaderModuleDescriptor

	// Validate compiles the WGSL offline to SPIR-V to catch syntax and type errors without a device.
	//
	// Returns:
	//   - error: the compiler diagnostic, if any
	Validate() error
}

var _ Shader = &shader{}

// NewShader loads and reflects a WGSL shader from disk.
// Shaders are part of an application's setup, so an unreadable file panics.
//
// Parameters:
//   - key: unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - sourcePath: path to the .wgsl file
//
// Returns:
//   - Shader: the reflected shader
func NewShader(key string, shaderType ShaderType, sourcePath string) Shader {
	if sourcePath == "" {
		panic(fmt.Sprintf("shader: %s must have a source path", key))
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to read source file %q: %v", sourcePath, err))
	}
	return NewShaderFromSource(key, shaderType, string(data))
}

// NewShaderFromSource reflects an in-memory WGSL shader, such as one embedded with go:embed.
//
// Parameters:
//   - key: unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - source: WGSL source
//
// Returns:
//   - Shader: the reflected shader
func NewShaderFromSource(key string, shaderType ShaderType, source string) Shader {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}

	r := reflectWGSL(source, shaderType)
	s.entryPoint = r.entryPoint
	s.vertexLayouts = r.vertexLayouts
	s.bindGroupLayoutDescriptors = r.bindGroups
	s.bindingVarNames = r.varNames
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindingVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}

func (s *shader) Validate() error {
	if strings.TrimSpace(s.source) == "" {
		return fmt.Errorf("shader %s: empty source", s.key)
	}
	if s.entryPoint == "" {
		return fmt.Errorf("shader %s: no %s entry point", s.key, s.shaderType)
	}
	if _, err := naga.Compile(s.source); err != nil {
		return fmt.Errorf("shader %s: %w", s.key, err)
	}
	return nil
}
