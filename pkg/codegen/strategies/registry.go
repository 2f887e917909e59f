package strategies

import (
	"fmt"

	"github.com/luanext/luanext/pkg/codegen"
	"github.com/luanext/luanext/pkg/config"
)

// For resolves the codegen.Strategy for a target dialect.
func For(d config.Dialect) (codegen.Strategy, error) {
	switch d {
	case config.Lua51:
		return Lua51{}, nil
	case config.Lua52:
		return Lua52{}, nil
	case config.Lua53:
		return Lua53{}, nil
	case config.Lua54:
		return Lua54{}, nil
	case config.Lua55:
		return Lua55{}, nil
	case config.LuaJIT:
		return LuaJIT{}, nil
	default:
		return nil, fmt.Errorf("codegen: unknown dialect %q", d)
	}
}
