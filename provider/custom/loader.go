// Package custom runs Lua extractor scripts as source.Extractor implementations.
package custom

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/internal/scraper"
	"github.com/tubedl-cli/tubedl/util"
	lua "github.com/yuin/gopher-lua"
)

// Options are the Go services exposed to scripts.
type Options struct {
	// Client backs the http_tls module.
	Client *http.Client
	// Cache stores http_tls responses requested with cache = true. Nil disables it.
	Cache *cache.Store
}

// Load compiles the script at path and checks that it defines the extractor functions.
func Load(path string, opts Options) (*Extractor, error) {
	state := lua.NewState()
	libs.Preload(state)
	registerHTTPTLS(state, opts)

	if err := scraper.PreCompileAndLoad(state, path); err != nil {
		state.Close()
		return nil, err
	}

	name := util.FileStem(path)

	for _, fn := range []string{constant.ExtractFn, constant.ResolveFn} {
		if state.GetGlobal(fn).Type() != lua.LTFunction {
			state.Close()
			return nil, fmt.Errorf("function %s is required but not defined in %s", fn, name)
		}
	}

	return &Extractor{name: name, state: state}, nil
}

// Hosts reads the "-- @hosts" header of a script: a comma separated list of host names the script claims.
func Hosts(path string) ([]string, error) {
	file, err := filesystem.API().Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "--") {
			if line == "" {
				continue
			}
			break
		}

		rest, ok := strings.CutPrefix(strings.TrimSpace(strings.TrimLeft(line, "-")), "@hosts")
		if !ok {
			continue
		}

		hosts := lo.Map(strings.Split(rest, ","), func(h string, _ int) string {
			return strings.ToLower(strings.TrimSpace(h))
		})

		return lo.Compact(hosts), nil
	}

	return nil, scanner.Err()
}
