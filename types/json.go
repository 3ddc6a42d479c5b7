package types

import (
	"bytes"
	"encoding/json"
)

// marshalTagged encodes v as a JSON object with an extra "type" discriminator,
// used by every closed sum type in this package.
func marshalTagged(kind string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if body := bytes.TrimSpace(raw); len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}
