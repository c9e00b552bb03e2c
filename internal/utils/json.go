package utils

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

// StableStringify serialises v with object keys sorted at every depth and
// timestamps rendered as UTC ISO-8601, so semantically equal values always
// produce the same string. A nil value yields an empty string.
func StableStringify(v any) string {
	if v == nil {
		return ""
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return ""
	}
	if decoded == nil {
		return ""
	}

	var buf bytes.Buffer
	writeStable(&buf, decoded)
	return buf.String()
}

func writeStable(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			writeStable(buf, val[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeStable(buf, item)
		}
		buf.WriteByte(']')
	case string:
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			val = t.UTC().Format(time.RFC3339Nano)
		}
		writeString(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	}
}

func writeString(buf *bytes.Buffer, s string) {
	data, _ := json.Marshal(s)
	buf.Write(data)
}
