package inline

import (
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// Schema describes the JSON lines written in JSON mode.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		name := t.Name()
		switch strings.ToLower(name) {
		case "summary", "result", "event":
			return filepath.Base(t.PkgPath()) + "." + name
		}

		return name
	}

	return reflector.Reflect(&Event{})
}
