// Package icon renders the status symbols of the CLI in the variant chosen by icons.variant.
package icon

import (
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/key"
	"golang.org/x/exp/slices"
)

// iconDef holds one symbol in every variant.
type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

var variants = map[string]func(*iconDef) string{
	"emoji":   func(d *iconDef) string { return d.emoji },
	"nerd":    func(d *iconDef) string { return d.nerd },
	"plain":   func(d *iconDef) string { return d.plain },
	"kaomoji": func(d *iconDef) string { return d.kaomoji },
	"squares": func(d *iconDef) string { return d.squares },
}

// AvailableVariants lists the accepted icons.variant values, sorted.
func AvailableVariants() []string {
	names := lo.Keys(variants)
	slices.Sort(names)
	return names
}

// Get renders i. Unknown variants fall back to plain, so log lines always carry a marker.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}

	render, ok := variants[viper.GetString(key.IconsVariant)]
	if !ok {
		render = variants["plain"]
	}
	return render(def)
}
