package protocol

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// specCmd prints the json schema of the connector config, or of a destination config
// with --destination-type
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "spec command",
	RunE: func(_ *cobra.Command, _ []string) error {
		var config any
		if destinationType == "not-set" {
			config = connector.Spec()
		} else {
			writerType := types.AdapterType(strings.ToUpper(destinationType))
			newFunc, found := destination.RegisteredWriters[writerType]
			if !found {
				return fmt.Errorf("invalid destination type has been passed [%s]", writerType)
			}
			config = newFunc().Spec()
		}

		schema, err := ConfigSchema(config)
		if err != nil {
			return err
		}

		logger.LogSpec(schema)
		return nil
	},
}

// ConfigSchema reflects a config struct into a json schema. Property order follows
// field order; required and enum values come from the validate tags.
func ConfigSchema(config any) (map[string]any, error) {
	typ := reflect.TypeOf(config)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("failed to reflect config: expected struct, found %v", typ)
	}

	properties := map[string]any{}
	required := []string{}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if !field.IsExported() || name == "" || name == "-" {
			continue
		}

		property := map[string]any{
			"type":  jsonType(field.Type),
			"order": len(properties) + 1,
		}
		for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
			switch {
			case rule == "required":
				required = append(required, name)
			case rule == "url":
				property["format"] = "uri"
			case strings.HasPrefix(rule, "oneof="):
				property["enum"] = strings.Fields(strings.TrimPrefix(rule, "oneof="))
			case strings.HasPrefix(rule, "gte="):
				property["minimum"] = 0
			}
		}
		properties[name] = property
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}, nil
}

func jsonType(typ reflect.Type) string {
	switch typ.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Pointer:
		return jsonType(typ.Elem())
	default:
		return "string"
	}
}
