package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// SerializableExportedDecl is ast.ExportedDecl with the StringId/TypeId
// fields resolved to plain strings, so it can be persisted without also
// persisting the arena and interner that gave those ids meaning.
type SerializableExportedDecl struct {
	Name       string `msgpack:"name"`
	TypeDesc   string `msgpack:"type_desc"`
	IsDefault  bool   `msgpack:"is_default"`
}

// SerializableModuleExports is the full serializable representation of a
// module's exported types, sufficient to reconstruct a ModuleRegistry entry
// without reparsing. TypeDesc is a canonical textual
// rendering of the exported type, not a full serialized type graph of the
// arena subgraph the type lives in.
type SerializableModuleExports struct {
	Named   []SerializableExportedDecl `msgpack:"named"`
	Default *SerializableExportedDecl  `msgpack:"default"`
}

// ToModuleExports reconstructs an *ast.ModuleExports suitable for
// populating a ModuleRegistry entry on a cache hit, interning each exported
// name into the provided interner so the returned StringIds are valid in
// the current compilation.
func (s *SerializableModuleExports) ToModuleExports(in *luaast.StringInterner) *luaast.ModuleExports {
	out := &luaast.ModuleExports{}
	for _, n := range s.Named {
		out.Named = append(out.Named, luaast.ExportedDecl{
			Name: in.Intern(n.Name),
			// Type is left InvalidTypeId: reconstructing the full TypeId
			// graph would require also reconstructing the arena the
			// original type lived in. Cross-module consumers that need the
			// structural type, not just its name, fall back to TypeDesc.
			Type: luaast.InvalidTypeId,
		})
	}
	if s.Default != nil {
		out.HasDefault = true
		out.Default = &luaast.ExportedDecl{
			Name:      in.Intern(s.Default.Name),
			Type:      luaast.InvalidTypeId,
			IsDefault: true,
		}
	}
	return out
}

// FromModuleExports builds the serializable form from a live ModuleExports.
// describeType renders a TypeId to a stable textual form (owned by the type
// checker in a full build; tests pass a trivial stringifier).
func FromModuleExports(in *luaast.StringInterner, exports *luaast.ModuleExports, describeType func(luaast.TypeId) string) *SerializableModuleExports {
	out := &SerializableModuleExports{}
	for _, d := range exports.Named {
		out.Named = append(out.Named, SerializableExportedDecl{
			Name:     in.Resolve(d.Name),
			TypeDesc: describeType(d.Type),
		})
	}
	if exports.HasDefault && exports.Default != nil {
		out.Default = &SerializableExportedDecl{
			Name:      in.Resolve(exports.Default.Name),
			TypeDesc:  describeType(exports.Default.Type),
			IsDefault: true,
		}
	}
	return out
}

// CachedModule is the on-disk per-module entry, stored at
// modules/<source-hash>.bin.
type CachedModule struct {
	Path                string                     `msgpack:"path"`
	SourceHash          string                     `msgpack:"source_hash"`
	InternerStrings     []string                   `msgpack:"interner_strings"`
	ExportNames         []string                   `msgpack:"export_names"`
	HasDefaultExport    bool                       `msgpack:"has_default_export"`
	SerializableExports *SerializableModuleExports `msgpack:"serializable_exports,omitempty"`
}

// ToBytes serializes the module entry with msgpack, a compact,
// versioned, self-describing binary format (see DESIGN.md for why
// msgpack was chosen here over plain JSON).
func (m *CachedModule) ToBytes() ([]byte, error) {
	return msgpack.Marshal(m)
}

func CachedModuleFromBytes(data []byte) (*CachedModule, error) {
	var m CachedModule
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt module cache entry: %w", err)
	}
	return &m, nil
}

// ComputeHash hashes the module's own serialized bytes. Manager.Write does
// not use it: the manifest entry's CacheHash is the module's source hash.
func (m *CachedModule) ComputeHash() (string, error) {
	b, err := m.ToBytes()
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}
