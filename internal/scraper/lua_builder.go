// Package scraper compiles Lua extractor scripts and keeps their bytecode for reuse across Lua states.
package scraper

import (
	"fmt"
	"sync"
	"time"

	"github.com/tubedl-cli/tubedl/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type compiled struct {
	proto   *lua.FunctionProto
	modTime time.Time
	size    int64
}

var bytecodeCache sync.Map

// PreCompileAndLoad runs the script at scriptPath inside L. The compiled prototype is reused
// until the file changes on disk.
func PreCompileAndLoad(L *lua.LState, scriptPath string) error {
	proto, err := Compile(scriptPath)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

// Compile returns the bytecode prototype of the script at scriptPath.
func Compile(scriptPath string) (*lua.FunctionProto, error) {
	info, err := filesystem.API().Stat(scriptPath)
	if err != nil {
		return nil, err
	}

	if cached, ok := bytecodeCache.Load(scriptPath); ok {
		c := cached.(compiled)
		if c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
			return c.proto, nil
		}
	}

	file, err := filesystem.API().Open(scriptPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	chunk, err := parse.Parse(file, scriptPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", scriptPath, err)
	}

	proto, err := lua.Compile(chunk, scriptPath)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", scriptPath, err)
	}

	bytecodeCache.Store(scriptPath, compiled{proto: proto, modTime: info.ModTime(), size: info.Size()})
	return proto, nil
}

// Forget drops the cached bytecode of scriptPath.
func Forget(scriptPath string) {
	bytecodeCache.Delete(scriptPath)
}
