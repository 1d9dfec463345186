package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormats maps WGSL vertex input types to their attribute format and byte size.
var vertexFormats = map[string]struct {
	format wgpu.VertexFormat
	size   uint64
}{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2u":     {wgpu.VertexFormatUint32x2, 8},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_cube":     wgpu.TextureViewDimensionCube,
	"texture_3d":       wgpu.TextureViewDimension3D,
}

var textureSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// struct Name { ... }
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex    = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex     = regexp.MustCompile(`@builtin\(\w+\)`)
	// optional attributes, then name: type
	fieldRegex = regexp.MustCompile(`^(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)$`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// @group(G) @binding(B) var<space> name: type;
	bindingDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

type wgslField struct {
	name     string
	typeName string
	location int // -1 when the field has no @location
	builtin  bool
}

type wgslStruct struct {
	name   string
	fields []wgslField
}

type reflection struct {
	entryPoint    string
	vertexLayouts []wgpu.VertexBufferLayout
	bindGroups    map[int]wgpu.BindGroupLayoutDescriptor
	varNames      map[int]map[int]string
}

func reflectWGSL(source string, shaderType ShaderType) reflection {
	cleaned := stripComments(source)
	structs := parseStructs(cleaned)

	r := reflection{
		entryPoint: findEntryPoint(cleaned, shaderType),
		bindGroups: make(map[int]wgpu.BindGroupLayoutDescriptor),
		varNames:   make(map[int]map[int]string),
	}
	if shaderType == ShaderTypeVertex {
		r.vertexLayouts = vertexLayoutsOf(structs)
	}
	r.bindGroups, r.varNames = bindGroupsOf(cleaned, structs, shaderType.Visibility())
	return r
}

func findEntryPoint(source string, shaderType ShaderType) string {
	re := vertexEntryRegex
	if shaderType == ShaderTypeFragment {
		re = fragmentEntryRegex
	}
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

func parseStructs(source string) []wgslStruct {
	var out []wgslStruct
	for _, m := range structBlockRegex.FindAllStringSubmatch(source, -1) {
		s := wgslStruct{name: m[1]}
		for _, part := range splitTopLevel(m[2]) {
			if f, ok := parseField(strings.TrimSpace(part)); ok {
				s.fields = append(s.fields, f)
			}
		}
		out = append(out, s)
	}
	return out
}

func parseField(decl string) (wgslField, bool) {
	if decl == "" {
		return wgslField{}, false
	}
	m := fieldRegex.FindStringSubmatch(decl)
	if m == nil {
		return wgslField{}, false
	}

	f := wgslField{
		name:     m[1],
		typeName: strings.TrimSpace(m[2]),
		location: -1,
		builtin:  builtinRegex.MatchString(decl),
	}
	if loc := locationRegex.FindStringSubmatch(decl); loc != nil {
		f.location, _ = strconv.Atoi(loc[1])
	}
	return f, true
}

// vertexLayoutsOf builds a tightly packed buffer layout for every struct whose fields are all @location inputs.
// Structs with a @builtin are stage outputs and are skipped.
func vertexLayoutsOf(structs []wgslStruct) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, s := range structs {
		if !isVertexInput(s) {
			continue
		}

		var offset uint64
		attrs := make([]wgpu.VertexAttribute, 0, len(s.fields))
		ok := true
		for _, f := range s.fields {
			vf, known := vertexFormats[f.typeName]
			if !known {
				ok = false
				break
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vf.format,
				Offset:         offset,
				ShaderLocation: uint32(f.location),
			})
			offset += vf.size
		}
		if !ok {
			continue
		}

		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: offset,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return layouts
}

func isVertexInput(s wgslStruct) bool {
	if len(s.fields) == 0 {
		return false
	}
	for _, f := range s.fields {
		if f.builtin || f.location < 0 {
			return false
		}
	}
	return true
}

func bindGroupsOf(source string, structs []wgslStruct, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	sizes := structSizes(structs)
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range bindingDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		space := strings.TrimSpace(m[3])
		typeName := strings.TrimSpace(m[5])

		entry := classifyBinding(uint32(binding), visibility, space, typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := typeLayout(typeName, sizes); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		entries[group] = append(entries[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = m[4]
	}

	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, e := range entries {
		sort.Slice(e, func(i, j int) bool { return e[i].Binding < e[j].Binding })
		descriptors[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return descriptors, names
}

func classifyBinding(binding uint32, visibility wgpu.ShaderStage, space, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case space == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(space, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(space, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_"):
		base, param, _ := strings.Cut(typeName, "<")
		param = strings.TrimSpace(strings.TrimSuffix(param, ">"))
		if dim, ok := textureDimensions[base]; ok {
			entry.Texture.ViewDimension = dim
		}
		if st, ok := textureSampleTypes[param]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// splitTopLevel splits a struct body at commas that are not inside <...>.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	block := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			pair := source[i : i+2]
			switch {
			case pair == "/*":
				block++
				i++
				continue
			case pair == "*/" && block > 0:
				block--
				i++
				continue
			case pair == "//" && block == 0:
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if block == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
