// Package output turns output templates into filesystem paths and detects files that already exist there.
package output

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/source"
)

// excluded names structural fields that are never useful in a path.
var excluded = []string{"Type", "type", "Formats", "formats", "Entries", "entries"}

// field describes one template-addressable struct field.
type field struct {
	index int
	names []string
}

var (
	fieldsOnce sync.Once
	fieldsOf   map[reflect.Type][]field
	whitelist  map[string]struct{}
)

func initFields() {
	fieldsOnce.Do(func() {
		fieldsOf = make(map[reflect.Type][]field)
		whitelist = make(map[string]struct{})

		for _, t := range []reflect.Type{
			reflect.TypeOf(format.Format{}),
			reflect.TypeOf(source.Playlist{}),
			reflect.TypeOf(source.Media{}),
		} {
			for i := 0; i < t.NumField(); i++ {
				sf := t.Field(i)
				if !sf.IsExported() || !isScalar(sf.Type) || lo.Contains(excluded, sf.Name) {
					continue
				}

				names := []string{sf.Name}
				if alias := jsonName(sf); alias != "" && alias != sf.Name {
					names = append(names, alias)
				}

				if lo.Contains(excluded, names[len(names)-1]) {
					continue
				}

				fieldsOf[t] = append(fieldsOf[t], field{index: i, names: names})
				for _, name := range names {
					whitelist[name] = struct{}{}
				}
			}
		}
	})
}

// Keys returns every name a template may reference, sorted.
func Keys() []string {
	initFields()
	keys := lo.Keys(whitelist)
	sort.Strings(keys)
	return keys
}

// IsAllowed reports whether name may appear as a {name} token.
func IsAllowed(name string) bool {
	initFields()
	_, ok := whitelist[name]
	return ok
}

func jsonName(sf reflect.StructField) string {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// isScalar rejects collections and nested structs. mo.Option wrappers count as their payload.
func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return false
	case reflect.Struct:
		return isOption(t)
	default:
		return true
	}
}

func isOption(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() == "github.com/samber/mo" && strings.HasPrefix(t.Name(), "Option[")
}
