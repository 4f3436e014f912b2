package commands

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/recordkit/internal/cli/ui"
	"github.com/conduit-lang/recordkit/internal/orm/coerce"
)

// kinds maps the scalar type names accepted by 'coerce' to their types
var kinds = map[string]reflect.Type{
	"bool":     reflect.TypeOf(false),
	"string":   reflect.TypeOf(""),
	"int":      reflect.TypeOf(int(0)),
	"int8":     reflect.TypeOf(int8(0)),
	"int16":    reflect.TypeOf(int16(0)),
	"int32":    reflect.TypeOf(int32(0)),
	"int64":    reflect.TypeOf(int64(0)),
	"uint":     reflect.TypeOf(uint(0)),
	"uint8":    reflect.TypeOf(uint8(0)),
	"uint16":   reflect.TypeOf(uint16(0)),
	"uint32":   reflect.TypeOf(uint32(0)),
	"uint64":   reflect.TypeOf(uint64(0)),
	"float32":  reflect.TypeOf(float32(0)),
	"float64":  reflect.TypeOf(float64(0)),
	"uuid":     reflect.TypeOf(uuid.UUID{}),
	"time":     reflect.TypeOf(time.Time{}),
	"duration": reflect.TypeOf(time.Duration(0)),
}

// coercion is the result of one conversion
type coercion struct {
	Kind   string      `json:"kind"`
	Type   string      `json:"type"`
	Input  string      `json:"input"`
	Value  interface{} `json:"value"`
	Loose  bool        `json:"loose"`
	Output string      `json:"output"`
}

// newCoerceCommand creates the 'coerce' command
func newCoerceCommand(a *app) *cobra.Command {
	var (
		format string
		loose  bool
	)

	cmd := &cobra.Command{
		Use:   "coerce <kind> <value>",
		Short: "Convert a value the way key properties are populated",
		Long: `Convert a textual value into a property type.

The kind is a scalar type name (` + strings.Join(kindNames(), ", ") + `)
or a property of a registered record type written as Record.Property.

By default the strict key conversion is used, which accepts a value of the
exact type or its text form. With --loose the general conversion used when
mapping between differently typed properties is applied instead.`,
		Example: `  # Parse a key value
  recordkit coerce int64 42

  # Convert into a record property's type
  recordkit coerce Order.Placed 2024-03-01T10:00:00Z

  # Loose conversion accepts more input forms
  recordkit coerce --loose bool yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, input := args[0], args[1]

			target, err := a.targetType(kind)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(ui.ErrorOptions{
					Context:      "unknown kind",
					Problem:      err.Error(),
					Suggestions:  ui.FindSimilar(kind, a.kindCandidates(), nil),
					HelpCommands: []string{"See accepted kinds: recordkit coerce --help"},
					NoColor:      a.noColor,
				}))
				return reportedError{err}
			}

			convert := coerce.Convert
			if loose {
				convert = coerce.ChangeType
			}
			out, err := convert(target, input)
			if err != nil {
				a.logger.Debug("coercion failed",
					zap.String("kind", kind),
					zap.String("input", input),
					zap.Bool("loose", loose),
					zap.Error(err),
				)
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConversionFailed(kind, input, err, a.noColor))
				return reportedError{err}
			}

			result := coercion{
				Kind:   kind,
				Type:   target.String(),
				Input:  input,
				Value:  out.Interface(),
				Loose:  loose,
				Output: display(out),
			}

			if strings.EqualFold(format, "table") {
				kv := ui.NewKeyValueTable(cmd.OutOrStdout(), a.noColor)
				kv.AddRow("Kind", result.Kind)
				kv.AddRow("Type", result.Type)
				kv.AddRow("Input", result.Input)
				kv.AddRow("Value", result.Output)
				kv.Render()
				return nil
			}
			formatter, err := GetFormatter(format, cmd.OutOrStdout(), a.noColor)
			if err != nil {
				return err
			}
			return formatter.Format(result)
		},
	}

	cmd.Flags().BoolVar(&loose, "loose", false, "Use the general mapping conversion instead of the strict key conversion")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: json or table")
	return cmd
}

// targetType resolves a scalar kind name or a Record.Property reference
func (a *app) targetType(kind string) (reflect.Type, error) {
	if t, ok := kinds[strings.ToLower(kind)]; ok {
		return t, nil
	}

	record, property, ok := strings.Cut(kind, ".")
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	t, ok := a.engine.Names().Get(record)
	if !ok {
		return nil, fmt.Errorf("record type %q not found", record)
	}
	p, ok := a.engine.Resolver().Property(t, property)
	if !ok {
		return nil, fmt.Errorf("record type %s has no property %q", record, property)
	}
	if !coerce.IsPrimitive(p.Type) {
		return nil, fmt.Errorf("property %s is not a scalar (%s)", kind, p.Type)
	}
	return p.Type, nil
}

// kindCandidates lists every accepted kind for suggestions
func (a *app) kindCandidates() []string {
	candidates := kindNames()
	for _, name := range a.engine.Names().List() {
		t, _ := a.engine.Names().Get(name)
		props, err := a.engine.Resolver().Properties(t)
		if err != nil {
			continue
		}
		for _, p := range props {
			if coerce.IsPrimitive(p.Type) {
				candidates = append(candidates, name+"."+p.Name)
			}
		}
	}
	return candidates
}

func kindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// display renders a converted value, showing nil for an empty nullable
func display(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "nil"
		}
		v = v.Elem()
	}
	switch x := v.Interface().(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
