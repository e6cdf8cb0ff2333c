// Package params 读取 YAML 传入的任务参数，数字在不同来源下可能是 int 或 float64
package params

func String(p map[string]any, key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

func Int(p map[string]any, key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func Strings(p map[string]any, key string) []string {
	var out []string
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		for _, s := range v {
			if str, ok := s.(string); ok && str != "" {
				out = append(out, str)
			}
		}
	}
	return out
}
