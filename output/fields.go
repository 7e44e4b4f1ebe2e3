package output

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/source"
)

// Fields builds the template field map of an item. Layers apply in the order format, playlist, media,
// so media fields win on collisions. Any argument may be nil. Zero and absent values are left out
// and render as missing.
func Fields(media *source.Media, playlist *source.Playlist, f *format.Format) map[string]string {
	initFields()
	out := make(map[string]string)

	if f != nil {
		layer(out, reflect.ValueOf(*f))
	}
	if playlist != nil {
		layer(out, reflect.ValueOf(*playlist))
	}
	if media != nil {
		layer(out, reflect.ValueOf(*media))
	}

	return out
}

// ReferenceFields is the partial field map available before an item is resolved.
func ReferenceFields(ref source.Reference, playlist *source.Playlist) map[string]string {
	out := Fields(nil, playlist, nil)
	for k, v := range map[string]string{"id": ref.ID, "ID": ref.ID, "url": ref.URL, "URL": ref.URL, "title": ref.Title, "Title": ref.Title} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func layer(out map[string]string, v reflect.Value) {
	for _, fd := range fieldsOf[v.Type()] {
		value, ok := stringify(v.Field(fd.index))
		if !ok {
			continue
		}
		for _, name := range fd.names {
			out[name] = value
		}
	}
}

func stringify(v reflect.Value) (string, bool) {
	if isOption(v.Type()) {
		res := v.MethodByName("Get").Call(nil)
		if !res[1].Bool() {
			return "", false
		}
		v = res[0]
	}

	if v.IsZero() {
		return "", false
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	default:
		return fmt.Sprint(v.Interface()), true
	}
}
