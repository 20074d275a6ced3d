package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"managerconsole/internal/models"
)

// lookup resolves the first alias present in m. Exact names win in alias
// order; otherwise keys are matched case-insensitively in sorted key order so
// duplicates differing only in case resolve deterministically.
func lookup(m map[string]any, aliases ...string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := m[alias]; ok && v != nil {
			return v, true
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, alias := range aliases {
		for _, k := range keys {
			if strings.EqualFold(k, alias) && m[k] != nil {
				return m[k], true
			}
		}
	}
	return nil, false
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func str(m map[string]any, aliases ...string) string {
	v, ok := lookup(m, aliases...)
	if !ok {
		return ""
	}
	s, _ := stringify(v)
	return s
}

func optStr(m map[string]any, aliases ...string) *string {
	s := str(m, aliases...)
	if s == "" {
		return nil
	}
	return &s
}

// Approval coerces a raw approval flag. 1, "1" and true are approved; 0, "0"
// and false are not approved; anything else, absent values included, is
// unknown and the raw value is handed back for display.
func Approval(raw any) (models.ApprovalState, any) {
	switch v := raw.(type) {
	case bool:
		if v {
			return models.ApprovalApproved, nil
		}
		return models.ApprovalNotApproved, nil
	case json.Number:
		return approvalFromText(v.String(), raw)
	case string:
		return approvalFromText(strings.TrimSpace(v), raw)
	case float64:
		switch v {
		case 1:
			return models.ApprovalApproved, nil
		case 0:
			return models.ApprovalNotApproved, nil
		}
	case int:
		switch v {
		case 1:
			return models.ApprovalApproved, nil
		case 0:
			return models.ApprovalNotApproved, nil
		}
	}
	return models.ApprovalUnknown, raw
}

func approvalFromText(s string, raw any) (models.ApprovalState, any) {
	switch s {
	case "1":
		return models.ApprovalApproved, nil
	case "0":
		return models.ApprovalNotApproved, nil
	}
	return models.ApprovalUnknown, raw
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime returns the zero time for absent or unparseable values.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
	case json.Number:
		if ms, err := t.Int64(); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Time{}
}
