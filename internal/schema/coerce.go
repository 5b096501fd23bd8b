package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sogmodel/sogcmd/internal/model"
)

// coerceValue normalizes a decoded YAML value to the canonical in-memory
// form for the field's kind. Numbers are accepted in integer, float and
// scientific notation, including the Fortran d-exponent form when the
// document carries them as strings.
func coerceValue(kind model.Kind, raw any) (any, error) {
	switch kind {
	case model.Real:
		return coerceReal(raw)
	case model.Int:
		return coerceInt(raw)
	case model.Str:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%v is not a string", raw)
		}
		return s, nil
	case model.Datetime:
		return coerceDatetime(raw)
	case model.Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%v is not a boolean", raw)
		}
		return b, nil
	case model.RealList:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%v is not a list", raw)
		}
		out := make([]float64, len(items))
		for i, item := range items {
			v, err := coerceReal(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case model.IntList:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%v is not a list", raw)
		}
		out := make([]int, len(items))
		for i, item := range items {
			v, err := coerceInt(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported kind %v", kind)
}

func coerceReal(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return parseReal(v)
	}
	return 0, fmt.Errorf("%v is not a number", raw)
}

func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%v is not an integer", raw)
}

func coerceDatetime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(model.DatetimeLayout, strings.Trim(v, `"`))
		if err != nil {
			return time.Time{}, fmt.Errorf("%q is not a yyyy-mm-dd hh:mm:ss datetime", v)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%v is not a datetime", raw)
}

// parseReal accepts 42, 42.5, 4.25e1 and the Fortran double-precision
// 4.25d1 notation.
func parseReal(text string) (float64, error) {
	normalized := strings.NewReplacer("d", "e", "D", "E").Replace(strings.TrimSpace(text))
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", text)
	}
	return v, nil
}

// coerceFlat converts the text form read from a legacy flat file into the
// canonical in-memory form for the field's kind.
func coerceFlat(kind model.Kind, text string) (any, error) {
	switch kind {
	case model.Real:
		return parseReal(text)
	case model.Int:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", text)
		}
		return n, nil
	case model.Str:
		return strings.Trim(text, `"`), nil
	case model.Datetime:
		return coerceDatetime(text)
	case model.Bool:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case ".true.":
			return true, nil
		case ".false.":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not .true. or .false.", text)
	case model.RealList:
		parts := strings.Fields(text)
		out := make([]float64, len(parts))
		for i, part := range parts {
			v, err := parseReal(part)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case model.IntList:
		parts := strings.Fields(text)
		out := make([]int, len(parts))
		for i, part := range parts {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("element %d: %q is not an integer", i, part)
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported kind %v", kind)
}

// formatValue renders a canonical value into the flat-file text the model
// executable's list-directed reader expects. Reals carry a d exponent
// marker so Fortran converts them to real(kind=dp); strings and datetimes
// are double quoted.
func formatValue(kind model.Kind, value any) (string, error) {
	switch kind {
	case model.Real:
		v, ok := value.(float64)
		if !ok {
			return "", fmt.Errorf("%v is not a real", value)
		}
		return formatReal(v), nil
	case model.Int:
		v, ok := value.(int)
		if !ok {
			return "", fmt.Errorf("%v is not an int", value)
		}
		return strconv.Itoa(v), nil
	case model.Str:
		v, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%v is not a string", value)
		}
		return `"` + v + `"`, nil
	case model.Datetime:
		v, ok := value.(time.Time)
		if !ok {
			return "", fmt.Errorf("%v is not a datetime", value)
		}
		return `"` + v.Format(model.DatetimeLayout) + `"`, nil
	case model.Bool:
		v, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("%v is not a boolean", value)
		}
		if v {
			return ".true.", nil
		}
		return ".false.", nil
	case model.RealList:
		v, ok := value.([]float64)
		if !ok {
			return "", fmt.Errorf("%v is not a real list", value)
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatReal(item)
		}
		return strings.Join(parts, " "), nil
	case model.IntList:
		v, ok := value.([]int)
		if !ok {
			return "", fmt.Errorf("%v is not an int list", value)
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = strconv.Itoa(item)
		}
		return strings.Join(parts, " "), nil
	}
	return "", fmt.Errorf("unsupported kind %v", kind)
}

func formatReal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'e', 6, 64), "e", "d", 1)
}

// FormatValue renders a field's canonical value as flat-file text.
func FormatValue(f *Field, value any) (string, error) {
	return formatValue(f.Kind, value)
}
