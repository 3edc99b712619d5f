package rest

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// fieldProcessorFunc mutates a settable string (or *string) field in place.
type fieldProcessorFunc func(reflect.Value)

var operators = map[string]map[string]fieldProcessorFunc{
	"normalize": {
		"trim":      trimNormalizer,
		"lowercase": lowercaseNormalizer,
		"uppercase": uppercaseNormalizer,
		"unaccent":  unaccentNormalizer,
		"unicode":   unicodeNormalizer,
	},
	"sanitize": {
		"html":         htmlSanitizer,
		"alphanumeric": alphanumericSanitizer,
		"numeric":      numericSanitizer,
	},
}

var htmlPolicy = bluemonday.UGCPolicy()

type taggedField struct {
	index []int
	funcs map[string][]fieldProcessorFunc // operator -> processors
	dive  bool
}

// taggedFieldsCache caches per-type tag metadata so repeated requests skip
// the reflection walk.
var taggedFieldsCache sync.Map

func taggedFields(t reflect.Type) ([]taggedField, error) {
	if cached, ok := taggedFieldsCache.Load(t); ok {
		return cached.([]taggedField), nil
	}

	var fields []taggedField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}

		field := taggedField{index: []int{i}, funcs: map[string][]fieldProcessorFunc{}}
		tagged := false

		for operator, processors := range operators {
			tag := sf.Tag.Get(operator)
			if tag == "" {
				continue
			}
			tagged = true

			for _, name := range strings.Split(tag, ",") {
				name = strings.TrimSpace(name)
				if name == "dive" {
					if !isDiveable(sf.Type) {
						return nil, fmt.Errorf("field %s is marked with 'dive' but is not diveable", sf.Name)
					}
					field.dive = true
					continue
				}
				if fn, ok := processors[name]; ok {
					field.funcs[operator] = append(field.funcs[operator], fn)
				}
			}
		}

		// Nested structs are always walked so their own tags apply.
		if !tagged && isStruct(sf.Type) {
			field.dive = true
			tagged = true
		}

		if tagged {
			fields = append(fields, field)
		}
	}

	taggedFieldsCache.Store(t, fields)
	return fields, nil
}

// processStruct applies the processors of the given operator ("normalize" or
// "sanitize") to every tagged field of the struct pointed to by v, recursing
// into nested structs and slices marked with dive.
func processStruct(v any, operator string) error {
	if v == nil {
		return nil
	}

	if _, ok := operators[operator]; !ok {
		return fmt.Errorf("invalid operator: %s", operator)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("expected a non-nil pointer to a struct")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("expected a struct, got: %s", rv.Kind())
	}

	fields, err := taggedFields(rv.Type())
	if err != nil {
		return err
	}

	for _, field := range fields {
		fv := rv.FieldByIndex(field.index)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}

		funcs := field.funcs[operator]

		if field.dive {
			if err := processNested(fv, funcs, operator); err != nil {
				return fmt.Errorf("field %s: %w", rv.Type().FieldByIndex(field.index).Name, err)
			}
			continue
		}

		for _, fn := range funcs {
			fn(fv)
		}
	}

	return nil
}

func processNested(fv reflect.Value, funcs []fieldProcessorFunc, operator string) error {
	switch fv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < fv.Len(); i++ {
			elem := fv.Index(i)
			if isStruct(elem.Type()) {
				if err := processValue(elem, operator); err != nil {
					return err
				}
				continue
			}
			for _, fn := range funcs {
				fn(elem)
			}
		}
		return nil
	case reflect.Ptr:
		if fv.IsNil() {
			return nil
		}
		return processNested(fv.Elem(), funcs, operator)
	case reflect.Struct:
		return processValue(fv, operator)
	default:
		for _, fn := range funcs {
			fn(fv)
		}
		return nil
	}
}

func processValue(v reflect.Value, operator string) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return processStruct(v.Interface(), operator)
	}
	if v.CanAddr() {
		return processStruct(v.Addr().Interface(), operator)
	}
	return nil
}

// processStringValue applies a transformation function to string values
func processStringValue(v reflect.Value, transform func(string) string) {
	switch v.Kind() {
	case reflect.String:
		v.SetString(transform(v.String()))
	case reflect.Ptr:
		if !v.IsNil() && v.Elem().Kind() == reflect.String {
			v.Elem().SetString(transform(v.Elem().String()))
		}
	}
}

// htmlSanitizer applies HTML sanitization using bluemonday
func htmlSanitizer(v reflect.Value) {
	processStringValue(v, htmlPolicy.Sanitize)
}

// alphanumericSanitizer removes all non-alphanumeric characters from a string
func alphanumericSanitizer(v reflect.Value) {
	processStringValue(v, func(s string) string {
		var b strings.Builder
		b.Grow(len(s))
		for _, r := range s {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		return b.String()
	})
}

// numericSanitizer removes all non-digit characters from a string
func numericSanitizer(v reflect.Value) {
	processStringValue(v, func(s string) string {
		var b strings.Builder
		b.Grow(len(s))
		for _, r := range s {
			if unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		return b.String()
	})
}

// trimNormalizer removes leading and trailing whitespace from strings
func trimNormalizer(v reflect.Value) {
	processStringValue(v, strings.TrimSpace)
}

// lowercaseNormalizer converts strings to lowercase
func lowercaseNormalizer(v reflect.Value) {
	processStringValue(v, strings.ToLower)
}

// uppercaseNormalizer converts strings to uppercase
func uppercaseNormalizer(v reflect.Value) {
	processStringValue(v, strings.ToUpper)
}

// unaccentNormalizer removes diacritics from strings
func unaccentNormalizer(v reflect.Value) {
	processStringValue(v, removeDiacritics)
}

// unicodeNormalizer normalizes Unicode strings to NFC form.
func unicodeNormalizer(v reflect.Value) {
	processStringValue(v, norm.NFC.String)
}

func removeDiacritics(s string) string {
	t := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func isStruct(v reflect.Type) bool {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v.Kind() == reflect.Struct
}

func isDiveable(v reflect.Type) bool {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return isStruct(v) || v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}
