package codegen

import "strings"

// luaPatternMagic is the set of characters a Lua pattern treats specially;
// escapeLuaPattern prefixes each with `%` so a template literal segment's
// literal text matches itself rather than being interpreted as a pattern.
const luaPatternMagic = "^$()%.[]*+-?"

func escapeLuaPattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(luaPatternMagic, r) {
			b.WriteByte('%')
		}
		b.WriteRune(r)
	}
	return b.String()
}
