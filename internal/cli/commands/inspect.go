package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/recordkit/internal/cli/ui"
	"github.com/conduit-lang/recordkit/internal/orm/graph"
	"github.com/conduit-lang/recordkit/internal/orm/query"
	ustrings "github.com/conduit-lang/recordkit/internal/util/strings"
	"github.com/conduit-lang/recordkit/pkg/entity"
)

// recordInfo describes one registered record type
type recordInfo struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Source     string         `json:"key_source"`
	Keys       []keyInfo      `json:"keys"`
	Properties []propertyInfo `json:"properties"`
	Lookup     *lookupInfo    `json:"lookup,omitempty"`
}

// lookupInfo is the key lookup statement rendered for a sample key
type lookupInfo struct {
	SQL  string        `json:"sql"`
	Args []interface{} `json:"args"`
}

type keyInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Column string `json:"column"`
	Order  int    `json:"order"`
}

type propertyInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Column string `json:"column"`
	Kind   string `json:"kind"`
	Key    bool   `json:"key,omitempty"`
}

// Formatter is an interface for formatting output
type Formatter interface {
	Format(data interface{}) error
}

// TableFormatter formats output as human-readable tables
type TableFormatter struct {
	writer  io.Writer
	noColor bool
}

// Format writes record summaries or a single record as tables
func (f *TableFormatter) Format(data interface{}) error {
	switch v := data.(type) {
	case []recordInfo:
		formatRecordsAsTable(f.writer, v, f.noColor)
	case recordInfo:
		formatRecordAsTable(f.writer, v, f.noColor)
	default:
		fmt.Fprintf(f.writer, "%+v\n", data)
	}
	return nil
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	writer io.Writer
}

// Format formats data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// GetFormatter returns the appropriate formatter based on the format parameter
func GetFormatter(format string, writer io.Writer, noColor bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{writer: writer}, nil
	case "table":
		return &TableFormatter{writer: writer, noColor: noColor}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, table)", format)
	}
}

// newInspectCommand creates the 'inspect' command
func newInspectCommand(a *app) *cobra.Command {
	var (
		format string
		table  string
		key    []string
	)

	cmd := &cobra.Command{
		Use:   "inspect [name]",
		Short: "Show the key schema of registered record types",
		Long: `Show the key schema of registered record types.

Without a name every registered record type is listed with its ordered key
properties and where the key was declared. With a name the record's
properties are listed with their column and classification (primitive,
complex or collection).`,
		Example: `  # List all record types
  recordkit inspect

  # Show one record type
  recordkit inspect Order

  # Output in JSON format for tooling
  recordkit inspect OrderLine --format json

  # Render the lookup statement for a key
  recordkit inspect OrderLine --key 7 --key 2 --table order_lines`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := GetFormatter(format, cmd.OutOrStdout(), a.noColor)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if len(key) > 0 {
					return fmt.Errorf("--key needs a record type name")
				}
				records, err := describeAll(a.engine)
				if err != nil {
					return err
				}
				return formatter.Format(records)
			}

			name := args[0]
			if !a.engine.Names().Exists(name) {
				suggestions := ui.FindSimilar(name, a.engine.Names().List(), nil)
				fmt.Fprint(cmd.ErrOrStderr(), ui.RecordNotFoundError(name, suggestions, a.noColor))
				return reportedError{fmt.Errorf("record type %q not found", name)}
			}
			info, err := describe(a.engine, name)
			if err != nil {
				return err
			}
			if len(key) > 0 {
				if info.Lookup, err = lookup(a.engine, name, table, key); err != nil {
					return err
				}
			}
			return formatter.Format(info)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: json or table")
	cmd.Flags().StringArrayVar(&key, "key", nil, "Key value, repeated in key order, to render the lookup statement for")
	cmd.Flags().StringVar(&table, "table", "", "Table name for --key (default: snake_case record name)")
	return cmd
}

// lookup renders the SELECT loading the record with the given key
func lookup(e *entity.Engine, name, table string, key []string) (*lookupInfo, error) {
	ks, err := e.Names().Schema(name)
	if err != nil {
		return nil, err
	}
	props, err := e.Resolver().Properties(ks.Type)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(props))
	for _, p := range props {
		if graph.Classify(p.Type) == graph.KindPrimitive {
			columns = append(columns, p.Column)
		}
	}
	if table == "" {
		table = ustrings.ToSnakeCase(name)
	}

	values := make([]interface{}, len(key))
	for i, k := range key {
		values[i] = k
	}
	sql, args, err := query.SelectByKey(table, columns, ks, values...)
	if err != nil {
		return nil, err
	}
	return &lookupInfo{SQL: sql, Args: args}, nil
}

func describeAll(e *entity.Engine) ([]recordInfo, error) {
	names := e.Names().List()
	records := make([]recordInfo, 0, len(names))
	for _, name := range names {
		info, err := describe(e, name)
		if err != nil {
			return nil, err
		}
		records = append(records, info)
	}
	return records, nil
}

func describe(e *entity.Engine, name string) (recordInfo, error) {
	ks, err := e.Names().Schema(name)
	if err != nil {
		return recordInfo{}, err
	}
	layout, err := e.Walker().Layout(ks.Type)
	if err != nil {
		return recordInfo{}, err
	}
	props, err := e.Resolver().Properties(ks.Type)
	if err != nil {
		return recordInfo{}, err
	}

	info := recordInfo{
		Name:   name,
		Type:   ks.Type.String(),
		Source: ks.Source.String(),
	}
	for _, k := range ks.Keys {
		info.Keys = append(info.Keys, keyInfo{
			Name:   k.Name,
			Type:   typeName(k.Type),
			Column: k.Column,
			Order:  k.Order,
		})
	}

	isKey := make(map[string]bool, len(ks.Keys))
	for _, n := range ks.Names() {
		isKey[n] = true
	}
	for _, p := range props {
		kind, _ := layout.Kind(p.Name)
		info.Properties = append(info.Properties, propertyInfo{
			Name:   p.Name,
			Type:   typeName(p.Type),
			Column: p.Column,
			Kind:   kind.String(),
			Key:    isKey[p.Name],
		})
	}
	return info, nil
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr && graph.Classify(t) == graph.KindPrimitive {
		return t.Elem().String() + "?"
	}
	return t.String()
}

func formatRecordsAsTable(w io.Writer, records []recordInfo, noColor bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No record types registered.")
		return
	}

	ui.Header(w, fmt.Sprintf("RECORD TYPES (%d total)", len(records)), noColor)
	fmt.Fprintln(w)

	table := ui.NewTable(w, []string{"NAME", "KEY", "SOURCE", "PROPERTIES"}, &ui.TableOptions{NoColor: noColor})
	for _, r := range records {
		keys := make([]string, len(r.Keys))
		for i, k := range r.Keys {
			keys[i] = k.Name
		}
		table.AddRow(r.Name, strings.Join(keys, ", "), r.Source, strconv.Itoa(len(r.Properties)))
	}
	table.Render()
}

func formatRecordAsTable(w io.Writer, r recordInfo, noColor bool) {
	ui.Header(w, r.Name, noColor)

	keys := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		keys[i] = k.Name
		if k.Order != 0 {
			keys[i] += "#" + strconv.Itoa(k.Order)
		}
	}

	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Type", r.Type)
	kv.AddRow("Key", strings.Join(keys, ", "))
	kv.AddRow("Key source", r.Source)
	if r.Lookup != nil {
		kv.AddRow("Lookup", r.Lookup.SQL)
		kv.AddRow("Arguments", fmt.Sprintf("%v", r.Lookup.Args))
	}
	kv.Render()
	fmt.Fprintln(w)

	table := ui.NewTable(w, []string{"PROPERTY", "TYPE", "COLUMN", "KIND", "KEY"}, &ui.TableOptions{NoColor: noColor})
	for _, p := range r.Properties {
		key := ""
		if p.Key {
			key = "yes"
		}
		table.AddRow(p.Name, p.Type, p.Column, p.Kind, key)
	}
	table.Render()
}
