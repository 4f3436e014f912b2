package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	ustrings "github.com/conduit-lang/recordkit/internal/util/strings"
)

// keyTag is the parsed form of `orm:"key,order=2"`
type keyTag struct {
	key   bool
	order int
}

// parseKeyTag reads the key options from a tag value
func parseKeyTag(value string) (keyTag, error) {
	var tag keyTag
	if value == "" || value == "-" {
		return tag, nil
	}

	for _, opt := range strings.Split(value, ",") {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "key":
			tag.key = true
		case strings.HasPrefix(opt, "order=") || strings.HasPrefix(opt, "order:"):
			n, err := strconv.Atoi(opt[len("order="):])
			if err != nil {
				return tag, fmt.Errorf("bad column order %q", opt)
			}
			tag.order = n
		case opt == "":
		default:
			return tag, fmt.Errorf("unknown option %q", opt)
		}
	}
	return tag, nil
}

// columnName returns the storage column for a field
func columnName(field reflect.StructField, columnTag string) string {
	if tagValue, ok := field.Tag.Lookup(columnTag); ok {
		name, _, _ := strings.Cut(tagValue, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return ustrings.ToSnakeCase(field.Name)
}

// collectProperties lists the exported fields of t in declaration order.
// Fields promoted through embedded pointers are skipped because reading
// them would require allocating the embedded value; collectEmbedded lists
// those pointers instead.
func collectProperties(t reflect.Type, opts Options) ([]Property, error) {
	var props []Property

	for _, field := range reflect.VisibleFields(t) {
		if field.Anonymous || !field.IsExported() {
			continue
		}
		if throughPointer(t, field.Index) {
			continue
		}

		tag, err := parseKeyTag(field.Tag.Get(opts.Tag))
		if err != nil {
			return nil, &SchemaError{Type: t, Err: ErrInvalidDeclaration, Reason: field.Name + ": " + err.Error()}
		}

		props = append(props, Property{
			Name:   field.Name,
			Type:   field.Type,
			Index:  field.Index,
			Column: columnName(field, opts.ColumnTag),
			Order:  tag.order,
			Key:    tag.key,
		})
	}

	return props, nil
}

// throughPointer reports whether the index path crosses an embedded pointer
func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Ptr {
			return true
		}
		t = f.Type
	}
	return false
}

// collectEmbedded lists the embedded struct pointers of t that are reached
// without crossing another pointer, exported or not. Fields promoted through
// them are not properties of t, so graph walks descend into them instead.
func collectEmbedded(t reflect.Type) []Property {
	var embedded []Property
	for _, field := range reflect.VisibleFields(t) {
		if !field.Anonymous || field.Type.Kind() != reflect.Ptr || field.Type.Elem().Kind() != reflect.Struct {
			continue
		}
		if throughPointer(t, field.Index) {
			continue
		}
		embedded = append(embedded, Property{
			Name:  field.Name,
			Type:  field.Type,
			Index: field.Index,
		})
	}
	return embedded
}
