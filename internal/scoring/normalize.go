// Package scoring turns raw learner answers into canonical values and scores
// them against a question bank. Every function here is pure and total.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Normalize converts a loosely typed answer, usually straight out of
// encoding/json, into the canonical value for qType. It never fails; input it
// cannot make sense of yields the empty answer for that type. An unknown
// question type yields nil.
func Normalize(qType models.QuestionType, raw any) models.AnswerValue {
	switch qType {
	case models.MultipleChoice:
		return normalizeMultipleChoice(raw)
	case models.TrueFalse:
		return normalizeTrueFalse(raw)
	case models.FillBlanks:
		return normalizeFillBlanks(raw)
	case models.Matching:
		return normalizeMatching(raw)
	}
	return nil
}

func normalizeMultipleChoice(raw any) models.MultipleChoiceAnswer {
	var selected []int
	seen := make(map[int]struct{})
	add := func(v any) {
		idx, ok := toInt(v)
		if !ok || idx < 0 {
			return
		}
		if _, dup := seen[idx]; dup {
			return
		}
		seen[idx] = struct{}{}
		selected = append(selected, idx)
	}

	if items, ok := toList(raw); ok {
		for _, item := range items {
			add(item)
		}
	} else if m, ok := toMap(raw); ok {
		// {"0": true, "2": true} style checkbox payloads
		for k, v := range m {
			if b, isBool := v.(bool); isBool && !b {
				continue
			}
			add(k)
		}
	} else {
		add(raw)
	}

	sort.Ints(selected)
	return models.MultipleChoiceAnswer{Selected: selected}
}

func normalizeTrueFalse(raw any) models.TrueFalseAnswer {
	switch v := raw.(type) {
	case bool:
		return models.TrueFalseAnswer{Value: strconv.FormatBool(v)}
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == models.TrueValue || s == models.FalseValue {
			return models.TrueFalseAnswer{Value: s}
		}
	case []any:
		if len(v) == 1 {
			return normalizeTrueFalse(v[0])
		}
	case []string:
		if len(v) == 1 {
			return normalizeTrueFalse(v[0])
		}
	}
	return models.TrueFalseAnswer{}
}

func normalizeFillBlanks(raw any) models.FillBlankAnswer {
	if items, ok := toList(raw); ok {
		blanks := make([]string, len(items))
		for i, item := range items {
			blanks[i] = toText(item)
		}
		return models.FillBlankAnswer{Blanks: blanks}
	}

	if m, ok := toMap(raw); ok {
		byIndex := make(map[int]string, len(m))
		maxIdx := -1
		for k, v := range m {
			idx, ok := toInt(k)
			if !ok || idx < 0 {
				continue
			}
			byIndex[idx] = toText(v)
			maxIdx = max(maxIdx, idx)
		}
		blanks := make([]string, maxIdx+1)
		for idx, v := range byIndex {
			blanks[idx] = v
		}
		return models.FillBlankAnswer{Blanks: blanks}
	}

	if raw == nil {
		return models.FillBlankAnswer{}
	}
	return models.FillBlankAnswer{Blanks: []string{toText(raw)}}
}

func normalizeMatching(raw any) models.MatchingAnswer {
	pairs := make(map[int]int)

	if m, ok := toMap(raw); ok {
		for k, v := range m {
			left, okL := toInt(k)
			right, okR := toInt(v)
			if okL && okR && left >= 0 && right >= 0 {
				pairs[left] = right
			}
		}
		return models.MatchingAnswer{Pairs: pairs}
	}

	// [{"left":0,"right":1}, ...] or [[0,1], ...]
	if items, ok := toList(raw); ok {
		for _, item := range items {
			left, right, ok := pairFrom(item)
			if ok {
				pairs[left] = right
			}
		}
	}
	return models.MatchingAnswer{Pairs: pairs}
}

func pairFrom(item any) (int, int, bool) {
	if m, ok := toMap(item); ok {
		left, okL := toInt(m["left"])
		right, okR := toInt(m["right"])
		return left, right, okL && okR && left >= 0 && right >= 0
	}
	if tuple, ok := toList(item); ok && len(tuple) == 2 {
		left, okL := toInt(tuple[0])
		right, okR := toInt(tuple[1])
		return left, right, okL && okR && left >= 0 && right >= 0
	}
	return 0, 0, false
}

// toInt accepts whole numbers in any numeric or string form.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case float32:
		return toInt(float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return toInt(f)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt(f)
		}
	}
	return 0, false
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

// toList reports whether v is any slice or array, returning its elements.
func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toMap reports whether v is a map, returning it keyed by string.
func toMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out, true
}
