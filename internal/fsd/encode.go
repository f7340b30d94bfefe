package fsd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format selects the output encoding of a decoded tree.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("fsd: unknown output format %q", raw)
	}
}

// Encode writes v to w. Mapping and record order is preserved in both formats.
func Encode(w io.Writer, v Value, format Format, indent int) error {
	switch format {
	case FormatYAML:
		opts := []yaml.EncodeOption{}
		if indent > 0 {
			opts = append(opts, yaml.Indent(indent))
		}
		out, err := yaml.MarshalWithOptions(ToYAML(v), opts...)
		if err != nil {
			return fmt.Errorf("fsd: encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case FormatJSON, "":
		var buf bytes.Buffer
		if err := writeJSON(&buf, v); err != nil {
			return err
		}
		if indent > 0 {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, buf.Bytes(), "", strings.Repeat(" ", indent)); err != nil {
				return fmt.Errorf("fsd: indent json: %w", err)
			}
			buf = pretty
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("fsd: unknown output format %q", format)
	}
}

func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	err := writeJSON(&buf, l)
	return buf.Bytes(), err
}

func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	err := writeJSON(&buf, m)
	return buf.Bytes(), err
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	err := writeJSON(&buf, r)
	return buf.Bytes(), err
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case float64:
		// JSON has no NaN or Inf.
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case string:
		writeJSONString(buf, x)
	case []byte:
		writeJSONString(buf, base64.StdEncoding.EncodeToString(x))
	case Key:
		writeJSONString(buf, x.String())
	case List:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Map:
		buf.WriteByte('{')
		var err error
		first := true
		x.Range(func(k, item Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, keyString(k))
			buf.WriteByte(':')
			err = writeJSON(buf, item)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	case *Record:
		buf.WriteByte('{')
		var err error
		first := true
		x.Range(func(name string, item Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, name)
			buf.WriteByte(':')
			err = writeJSON(buf, item)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		out, err := json.Marshal(x)
		if err != nil {
			return fmt.Errorf("fsd: encode %T: %w", v, err)
		}
		buf.Write(out)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	out, _ := json.Marshal(s)
	buf.Write(out)
}

// ToYAML converts v into values goccy/go-yaml encodes with mapping order kept.
func ToYAML(v Value) any {
	switch x := v.(type) {
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToYAML(item)
		}
		return out
	case *Map:
		out := make(yaml.MapSlice, 0, x.Len())
		x.Range(func(k, item Value) bool {
			out = append(out, yaml.MapItem{Key: yamlKey(k), Value: ToYAML(item)})
			return true
		})
		return out
	case *Record:
		out := make(yaml.MapSlice, 0, x.Len())
		x.Range(func(name string, item Value) bool {
			out = append(out, yaml.MapItem{Key: name, Value: ToYAML(item)})
			return true
		})
		return out
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case Key:
		return x.String()
	default:
		return v
	}
}

func yamlKey(k Value) any {
	switch k.(type) {
	case []byte, Key:
		return keyString(k)
	default:
		return k
	}
}

// ToPlain converts v into map[string]any and []any trees. Mapping order is
// lost; use it for lookups, not output.
func ToPlain(v Value) any {
	switch x := v.(type) {
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToPlain(item)
		}
		return out
	case *Map:
		out := make(map[string]any, x.Len())
		x.Range(func(k, item Value) bool {
			out[keyString(k)] = ToPlain(item)
			return true
		})
		return out
	case *Record:
		out := make(map[string]any, x.Len())
		x.Range(func(name string, item Value) bool {
			out[name] = ToPlain(item)
			return true
		})
		return out
	case Key:
		return x.String()
	default:
		return v
	}
}
