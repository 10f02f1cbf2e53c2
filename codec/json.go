package codec

import "encoding/json"

// JSON encodes with encoding/json. Its output is byte-stable across
// releases of the library, which GoJSON does not promise.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) MarshalIndent(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }
