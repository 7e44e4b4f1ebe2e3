// Package provider manages the built-in and custom extractors and routes URLs to them.
package provider

import (
	"net/http"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/provider/custom"
	"github.com/tubedl-cli/tubedl/provider/youtube"
	"github.com/tubedl-cli/tubedl/source"
	"github.com/tubedl-cli/tubedl/util"
	"github.com/tubedl-cli/tubedl/where"
)

// CustomProviderExtension is the file extension of Lua extractor scripts.
const CustomProviderExtension = ".lua"

// Provider describes an extractor without instantiating it.
type Provider struct {
	Name     string
	Hosts    []string
	IsCustom bool
	// Path of the script for custom providers.
	Path string
	// CreateExtractor builds the extractor. Lua providers compile their script here.
	CreateExtractor func(Env) (source.Extractor, error)
}

func (p *Provider) String() string {
	return p.Name
}

// Env carries what extractors need from the host application.
type Env struct {
	// Client for extractor requests.
	Client *http.Client
	// Cache for custom script responses.
	Cache *cache.Store
}

// Builtins returns the providers compiled into the binary.
func Builtins() []*Provider {
	return []*Provider{
		{
			Name:  youtube.Name,
			Hosts: youtube.Hosts,
			CreateExtractor: func(env Env) (source.Extractor, error) {
				return youtube.New(env.Client, viper.GetStringSlice(key.MetadataMusicSites)), nil
			},
		},
	}
}

// Customs returns the Lua providers installed in the extractors directory.
func Customs() []*Provider {
	providers, _ := CustomProviders()
	return providers
}

// All returns custom providers first, so a script can take over a host from a builtin.
func All() []*Provider {
	return append(Customs(), Builtins()...)
}

// Get finds a provider by name.
func Get(name string) (*Provider, bool) {
	return lo.Find(All(), func(p *Provider) bool {
		return p.Name == name
	})
}

// ForURL finds the provider claiming the host of rawURL, falling back to extractor.default.
func ForURL(rawURL string) (*Provider, bool) {
	if p, ok := lo.Find(All(), func(p *Provider) bool {
		return source.IsMusicHost(rawURL, p.Hosts)
	}); ok {
		return p, true
	}

	return Get(viper.GetString(key.ExtractorDefault))
}

// CustomProviders lists the scripts in where.Extractors().
func CustomProviders() ([]*Provider, error) {
	dir := where.Extractors()

	files, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var providers []*Provider
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != CustomProviderExtension {
			continue
		}

		path := filepath.Join(dir, f.Name())
		hosts, _ := custom.Hosts(path)

		providers = append(providers, &Provider{
			Name:     util.FileStem(f.Name()),
			Hosts:    hosts,
			IsCustom: true,
			Path:     path,
			CreateExtractor: func(env Env) (source.Extractor, error) {
				return custom.Load(path, custom.Options{Client: env.Client, Cache: env.Cache})
			},
		})
	}

	return providers, nil
}
