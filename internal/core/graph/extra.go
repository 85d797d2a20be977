package graph

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds the object keys a type does not model. The graph service
// stores definitions as free-form documents, so keys added by other
// clients (layout positions, edge ids, model options) are kept and
// encoded back unchanged.
type Extra map[string]json.RawMessage

// Clone returns a copy that shares no memory with e.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

var fieldKeysCache sync.Map // reflect.Type -> []string

// fieldKeys returns the JSON object keys modelled by struct type t.
func fieldKeys(t reflect.Type) []string {
	if cached, ok := fieldKeysCache.Load(t); ok {
		return cached.([]string)
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys = append(keys, name)
	}
	fieldKeysCache.Store(t, keys)
	return keys
}

// decodeWithExtra decodes data into the struct pointed to by v and returns
// the keys v does not model.
func decodeWithExtra(data []byte, v interface{}) (Extra, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range fieldKeys(reflect.TypeOf(v).Elem()) {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra encodes v and merges extra into the resulting object.
// Modelled keys always win over extra ones.
func encodeWithExtra(v interface{}, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}
