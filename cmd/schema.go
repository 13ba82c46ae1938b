package cmd

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/cinesrc/cinesrc/runner"
	"github.com/cinesrc/cinesrc/source"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolP("stream", "s", false, "Generate the JSON Schema of a single stream instead of a report")
}

var optionalInt = reflect.TypeOf(mo.Option[int]{})

// nullable maps mo.Option fields onto their value schema or null.
func nullable(t reflect.Type) *jsonschema.Schema {
	if t != optionalInt {
		return nil
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "null"},
		},
	}
}

// schemaCmd prints the JSON Schema of the --json output.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON Schema of the report printed with --json",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Mapper = nullable
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "result", "failure", "report":
				return "runner." + name
			}
			return name
		}

		var schema *jsonschema.Schema
		switch {
		case lo.Must(cmd.Flags().GetBool("stream")):
			schema = reflector.Reflect(&source.Stream{})
		default:
			schema = reflector.Reflect(&runner.Report{})
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}
