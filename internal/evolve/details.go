package evolve

import "strings"

// Descriptor details arrive as loosely typed maps (YAML scripts, API
// callers). These helpers pull typed values out without panicking on
// shape mismatches; a missing or mistyped value reads as absent and the
// intent builder falls back to its default or flags an ambiguity.

// stringDetail returns the first non-empty string under any of the keys.
func stringDetail(details map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := details[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// intDetail returns the first integer under any of the keys.
// YAML decodes integers as int; JSON round-trips may produce int64 or
// float64, accepted when integral.
func intDetail(details map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := details[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			if n == float64(int(n)) {
				return int(n), true
			}
		}
	}
	return 0, false
}

// boolDetail returns the first bool under any of the keys.
func boolDetail(details map[string]any, keys ...string) (bool, bool) {
	for _, key := range keys {
		v, ok := details[key]
		if !ok {
			continue
		}
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// stringsDetail returns the first string list under any of the keys.
// Accepts []string directly or []any of strings (the YAML decoder's
// shape); a list with a non-string element reads as absent.
func stringsDetail(details map[string]any, keys ...string) ([]string, bool) {
	for _, key := range keys {
		v, ok := details[key]
		if !ok {
			continue
		}
		switch list := v.(type) {
		case []string:
			return list, true
		case []any:
			out := make([]string, 0, len(list))
			valid := true
			for _, elem := range list {
				s, ok := elem.(string)
				if !ok {
					valid = false
					break
				}
				out = append(out, s)
			}
			if valid {
				return out, true
			}
		}
	}
	return nil, false
}
