package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"smartfilter/internal/core/id"
	"smartfilter/internal/domain/filter"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	idType      = reflect.TypeOf(id.ID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// Inspect analyzes a struct with db tags and returns its EntityDef.
// The table name comes from filter.Model when the value implements it.
func Inspect(entity any) EntityDef {
	t := reflect.TypeOf(entity)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	def := EntityDef{
		Name:   t.Name(),
		Fields: make([]FieldDef, 0),
	}
	if m, ok := entity.(filter.Model); ok {
		def.Table = m.TableName()
	} else {
		def.Table = snake(t.Name()) + "s"
	}

	inspectStruct(t, &def)
	return def
}

func inspectStruct(t reflect.Type, def *EntityDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.PkgPath != "" { // unexported
			continue
		}

		// Embedded structs are flattened
		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				inspectStruct(ft, def)
			}
			continue
		}

		column := field.Tag.Get("db")
		if column == "" || column == "-" {
			continue
		}

		fDef := FieldDef{
			Column:   column,
			JSONName: jsonName(field),
		}
		mapFieldType(&fDef, field.Type)
		def.Fields = append(def.Fields, fDef)
	}
}

func mapFieldType(def *FieldDef, t reflect.Type) {
	if t.Kind() == reflect.Ptr {
		def.Nullable = true
		t = t.Elem()
	}

	switch t {
	case timeType:
		def.Type = filter.TypeDate
		return
	case idType:
		def.Type = filter.TypeString
		return
	case decimalType:
		def.Type = filter.TypeFloat
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = filter.TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = filter.TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = filter.TypeFloat
	case reflect.Bool:
		def.Type = filter.TypeBoolean
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			def.Type = filter.TypeString
		} else {
			def.Type = filter.TypeArray
		}
	default:
		def.Type = filter.TypeString // fallback
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" && parts[0] != "-" {
			return parts[0]
		}
	}
	// Fallback: camelCase
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// snake converts CamelCase to snake_case ("BlogPost" -> "blog_post").
func snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
