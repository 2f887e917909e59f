package ast

import "sync"

// StringId is an interned index into a StringInterner's table. Two StringIds
// are equal iff the source strings they were interned from are equal.
type StringId int32

// InvalidStringId marks an absent optional identifier (e.g. a call with no
// receiver class).
const InvalidStringId StringId = -1

// StringInterner is the append-only, concurrency-safe string table shared by
// a compilation and any cached-module reconstruction that outlives it.
// StringIds already handed out are never reassigned, so it is safe for
// multiple compilations (or a cache-hit reconstruction running alongside a
// fresh compile) to share one interner.
type StringInterner struct {
	mu      sync.RWMutex
	strings []string
	index   map[string]StringId
}

// NewStringInterner creates an empty interner.
func NewStringInterner() *StringInterner {
	return &StringInterner{
		index: make(map[string]StringId),
	}
}

// Intern returns the StringId for s, assigning a fresh one if s has not been
// seen before. Safe for concurrent use.
func (in *StringInterner) Intern(s string) StringId {
	in.mu.RLock()
	if id, ok := in.index[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[s]; ok {
		return id
	}
	id := StringId(len(in.strings))
	in.strings = append(in.strings, s)
	in.index[s] = id
	return id
}

// Resolve returns the source string for id. Panics if id is out of range,
// which indicates a compiler bug (an id minted by a different interner).
func (in *StringInterner) Resolve(id StringId) string {
	if id == InvalidStringId {
		return ""
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.strings[id]
}

// Len returns the number of distinct interned strings.
func (in *StringInterner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.strings)
}

// AllStrings returns a snapshot of the interned strings in id order. Used by
// the cache to persist a module's portion of the table so that a
// reconstructed interner on cache-hit assigns compatible ids (see
// pkg/cache).
func (in *StringInterner) AllStrings() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]string, len(in.strings))
	copy(out, in.strings)
	return out
}

// CommonIdentifiers caches StringIds for hot, frequently-compared names so
// passes and codegen never need to re-intern them.
type CommonIdentifiers struct {
	Self        StringId
	Super       StringId
	Constructor StringId
	TopLevel    StringId
	Default     StringId
}

// NewCommonIdentifiers interns the well-known identifier set once.
func NewCommonIdentifiers(in *StringInterner) CommonIdentifiers {
	return CommonIdentifiers{
		Self:        in.Intern("self"),
		Super:       in.Intern("super"),
		Constructor: in.Intern("constructor"),
		TopLevel:    in.Intern("<top-level>"),
		Default:     in.Intern("default"),
	}
}
