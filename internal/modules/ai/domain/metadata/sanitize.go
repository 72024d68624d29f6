package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"VectorOps/internal/modules/ai/domain/entity"

	"github.com/spf13/cast"
)

// WrapKey 非 map 类型的 metadata 被包装到这个 key 下
const WrapKey = "metadata"

// Sanitize 把任意 metadata 转成只含基础类型值的 map，不会失败
func Sanitize(raw any) entity.Metadata {
	out := entity.Metadata{}
	if raw == nil {
		return out
	}
	if m, ok := toStringMap(raw); ok {
		for k, v := range m {
			out[k] = Value(v)
		}
		return out
	}
	out[WrapKey] = Value(raw)
	return out
}

// Value 单个值的转换规则：
// 基础类型原样保留；序列用 ", " 拼接各元素的文本；map 与其他值转 JSON，失败时退回 fmt 文本
func Value(v any) any {
	if isPrimitive(v) {
		return normalizePrimitive(v)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if isPrimitive(rv.Interface()) {
		return normalizePrimitive(rv.Interface())
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		return joinSequence(rv)
	default:
		return stringify(rv.Interface())
	}
}

func joinSequence(rv reflect.Value) string {
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts = append(parts, elementText(rv.Index(i).Interface()))
	}
	return strings.Join(parts, ", ")
}

func elementText(v any) string {
	if v == nil {
		return "None"
	}
	if isPrimitive(v) {
		if s, err := cast.ToStringE(v); err == nil {
			return s
		}
	}
	return stringify(v)
}

// stringify JSON 优先；循环引用等无法编码的值退回 %v，容器退回类型名
func stringify(v any) string {
	b, err := json.Marshal(v)
	if err == nil {
		return string(b)
	}
	var s string
	func() {
		defer func() {
			if recover() != nil {
				s = fmt.Sprintf("<%T>", v)
			}
		}()
		switch reflect.ValueOf(v).Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Struct:
			// 可能自引用，%v 会无限递归
			s = fmt.Sprintf("<%T>", v)
		default:
			s = fmt.Sprintf("%v", v)
		}
	}()
	return s
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

func normalizePrimitive(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

func toStringMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case entity.Metadata:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[cast.ToString(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out, true
}
