package shader

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// hostLayout is the size and alignment of a WGSL type in the uniform/storage address spaces.
type hostLayout struct {
	size  uint64
	align uint64
}

var primitiveLayouts = map[string]hostLayout{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4},
	"vec2<f32>": {8, 8}, "vec2f": {8, 8},
	"vec3<f32>": {12, 16}, "vec3f": {12, 16},
	"vec4<f32>": {16, 16}, "vec4f": {16, 16},
	"vec2<u32>": {8, 8}, "vec2u": {8, 8},
	"vec4<u32>": {16, 16}, "vec4u": {16, 16},
	"mat3x3<f32>": {48, 16}, "mat3x3f": {48, 16},
	"mat4x4<f32>": {64, 16}, "mat4x4f": {64, 16},
}

func alignUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// typeLayout resolves primitives, fixed-size arrays and already sized structs.
func typeLayout(typeName string, structs map[string]hostLayout) (hostLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := structs[typeName]; ok {
		return l, true
	}

	inner, isArray := strings.CutPrefix(typeName, "array<")
	if !isArray || !strings.HasSuffix(inner, ">") {
		return hostLayout{}, false
	}
	elem, count, sized := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	el, ok := typeLayout(strings.TrimSpace(elem), structs)
	if !ok {
		return hostLayout{}, false
	}
	stride := alignUp(el.align, el.size)
	if !sized {
		// runtime-sized: the minimum binding is one element
		return hostLayout{stride, el.align}, true
	}
	n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
	if err != nil {
		return hostLayout{}, false
	}
	return hostLayout{n * stride, el.align}, true
}

// structSizes sizes every struct it can, repeating until structs that nest other structs resolve.
func structSizes(structs []wgslStruct) map[string]hostLayout {
	sized := make(map[string]hostLayout, len(structs))
	pending := append([]wgslStruct(nil), structs...)

	for len(pending) > 0 {
		var next []wgslStruct
		for _, s := range pending {
			if l, ok := structLayout(s, sized); ok {
				sized[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return sized
}

func structLayout(s wgslStruct, known map[string]hostLayout) (hostLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, f := range s.fields {
		if f.builtin {
			continue
		}
		l, ok := typeLayout(f.typeName, known)
		if !ok {
			return hostLayout{}, false
		}
		offset = alignUp(l.align, offset) + l.size
		maxAlign = max(maxAlign, l.align)
	}
	return hostLayout{alignUp(maxAlign, offset), maxAlign}, true
}

// MergeBindGroupLayouts combines the bind group layouts declared by a vertex and a fragment shader.
// A binding declared by both stages keeps one entry with the union of both visibilities.
//
// Parameters:
//   - vertex: layouts declared by the vertex shader
//   - fragment: layouts declared by the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: merged layouts keyed by group, entries sorted by binding
func MergeBindGroupLayouts(vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertex)+len(fragment))
	for g, desc := range vertex {
		merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: append([]wgpu.BindGroupLayoutEntry(nil), desc.Entries...)}
	}

	for g, desc := range fragment {
		existing, ok := merged[g]
		if !ok {
			merged[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: append([]wgpu.BindGroupLayoutEntry(nil), desc.Entries...)}
			continue
		}
	next:
		for _, e := range desc.Entries {
			for i := range existing.Entries {
				if existing.Entries[i].Binding == e.Binding {
					existing.Entries[i].Visibility |= e.Visibility
					continue next
				}
			}
			existing.Entries = append(existing.Entries, e)
		}
		sortEntries(existing.Entries)
		merged[g] = existing
	}
	return merged
}

func sortEntries(entries []wgpu.BindGroupLayoutEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
}
