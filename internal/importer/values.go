package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// converter accumulates the context and warnings of one import.
type converter struct {
	// buckets maps bucket resource ids to project file bucket keys.
	buckets  map[string]string
	warnings []string
}

func (c *converter) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// str renders a property value in project file form. Refs and GetAtts
// become "${...}" placeholders, Subs keep their template string.
func (c *converter) str(path string, v any) string {
	s, ok := c.text(v)
	if !ok {
		c.warnf("%s: unsupported value %v, skipped", path, v)
	}
	return s
}

func (c *converter) text(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case bool, int, int32, int64, float64:
		return fmt.Sprint(val), true
	case map[string]any:
		if len(val) != 1 {
			return "", false
		}
		for key, args := range val {
			switch key {
			case "Ref":
				if name, ok := args.(string); ok {
					return "${" + name + "}", true
				}
			case "Fn::GetAtt":
				if target := getAttTarget(args); target != "" {
					return "${" + target + "}", true
				}
			case "Fn::Sub":
				switch a := args.(type) {
				case string:
					return a, true
				case []any:
					if len(a) > 0 {
						if s, ok := a[0].(string); ok {
							c.warnf("Fn::Sub variables dropped from %q", s)
							return s, true
						}
					}
				}
			case "Fn::Join":
				return c.join(args)
			}
		}
	}
	return "", false
}

func (c *converter) join(args any) (string, bool) {
	a, ok := args.([]any)
	if !ok || len(a) != 2 {
		return "", false
	}
	delim, ok := a[0].(string)
	if !ok {
		return "", false
	}
	items, ok := a[1].([]any)
	if !ok {
		return "", false
	}
	parts := make([]string, len(items))
	for i, item := range items {
		s, ok := c.text(item)
		if !ok {
			return "", false
		}
		parts[i] = s
	}
	return strings.Join(parts, delim), true
}

func getAttTarget(args any) string {
	switch a := args.(type) {
	case string:
		return a
	case []any:
		if len(a) == 2 {
			return fmt.Sprintf("%v.%v", a[0], a[1])
		}
	}
	return ""
}

// bucket splits an S3 location into a bucket key and an object path.
func (c *converter) bucket(path string, v any) (string, string) {
	s := c.str(path, v)
	if s == "" {
		return "", ""
	}
	name, rest, _ := strings.Cut(s, "/")
	if strings.HasPrefix(name, "${") && strings.HasSuffix(name, "}") {
		id := strings.TrimSuffix(strings.TrimPrefix(name, "${"), "}")
		if key, ok := c.buckets[id]; ok {
			return key, rest
		}
	}
	return name, rest
}

func (c *converter) strings(path string, v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if s := c.str(fmt.Sprintf("%s[%d]", path, i), item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *converter) tags(path string, v any) map[string]string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make(map[string]string, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["Key"].(string)
		out[key] = c.str(fmt.Sprintf("%s[%d].Value", path, i), m["Value"])
	}
	return out
}

func mapValue(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func listValue(v any) []any {
	l, _ := v.([]any)
	return l
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

func optionalBool(v any) *bool {
	if v == nil {
		return nil
	}
	b := boolValue(v)
	return &b
}
