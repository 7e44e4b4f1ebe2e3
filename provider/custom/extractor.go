package custom

import (
	"context"
	"fmt"
	"sync"

	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/source"
	lua "github.com/yuin/gopher-lua"
)

// Extractor runs a Lua script. A Lua state is single threaded, so calls are serialized.
type Extractor struct {
	name  string
	mu    sync.Mutex
	state *lua.LState
}

// Name returns the script name.
func (e *Extractor) Name() string {
	return e.name
}

// Close releases the Lua state.
func (e *Extractor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Close()
}

// Extract calls the script's Extract function with url.
func (e *Extractor) Extract(ctx context.Context, url string) (source.Extraction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	val, err := e.call(ctx, constant.ExtractFn, lua.LString(url))
	if err != nil {
		return source.Extraction{}, err
	}

	extraction, err := extractionFromTable(val, e.name)
	if err != nil {
		return source.Extraction{}, fault.Wrap(fault.Contract, "extract", err)
	}

	return extraction, nil
}

// Resolve calls the script's Resolve function with the reference as a table.
func (e *Extractor) Resolve(ctx context.Context, ref source.Reference) (*source.Media, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	val, err := e.call(ctx, constant.ResolveFn, referenceToTable(e.state, ref))
	if err != nil {
		return nil, err
	}

	media, err := mediaFromTable(val, e.name)
	if err != nil {
		return nil, fault.Wrap(fault.Contract, "resolve", err)
	}

	return media, nil
}

// call executes a global function and returns its single table result.
func (e *Extractor) call(ctx context.Context, fn string, args ...lua.LValue) (*lua.LTable, error) {
	luaFn := e.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fault.Wrapf(fault.Contract, fn, "function %s is not defined", fn)
	}

	e.state.SetContext(ctx)
	defer e.state.RemoveContext()

	err := e.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fault.Wrap(fault.Interrupted, fn, ctxErr)
		}
		return nil, fault.Wrap(fault.Connection, fn, err)
	}

	ret := e.state.Get(-1)
	e.state.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fault.Wrap(fault.Contract, fn, fmt.Errorf("%s returned %s, expected table", fn, ret.Type()))
	}

	return table, nil
}
