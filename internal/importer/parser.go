package importer

import (
	"github.com/lex00/cloudformation-schema-go/template"
)

// ParseTemplate parses a CloudFormation template file. Supports both YAML and
// JSON formats.
func ParseTemplate(path string) (*Template, error) {
	tmpl, err := template.ParseTemplate(path)
	if err != nil {
		return nil, err
	}
	return convertTemplate(tmpl), nil
}

// ParseTemplateContent parses CloudFormation template content.
func ParseTemplateContent(content []byte, sourceName string) (*Template, error) {
	tmpl, err := template.ParseTemplateContent(content, sourceName)
	if err != nil {
		return nil, err
	}
	return convertTemplate(tmpl), nil
}

func convertTemplate(tmpl *template.Template) *Template {
	out := NewTemplate()
	out.Description = tmpl.Description
	out.SourceFile = tmpl.SourceFile

	for logicalID, param := range tmpl.Parameters {
		out.Parameters[logicalID] = &Parameter{
			LogicalID:     logicalID,
			Type:          param.Type,
			Description:   param.Description,
			Default:       param.Default,
			AllowedValues: param.AllowedValues,
			NoEcho:        param.NoEcho,
		}
	}

	for logicalID, resource := range tmpl.Resources {
		props := make(map[string]any, len(resource.Properties))
		for name, prop := range resource.Properties {
			props[name] = plainValue(prop.Value)
		}
		out.Resources[logicalID] = &Resource{
			LogicalID:  logicalID,
			Type:       resource.ResourceType,
			Properties: props,
			DependsOn:  resource.DependsOn,
		}
	}
	return out
}

// plainValue rewrites parsed intrinsics into their JSON map form.
func plainValue(v any) any {
	switch val := v.(type) {
	case *IRIntrinsic:
		if val == nil {
			return nil
		}
		key, ok := intrinsicKeys[val.Type]
		if !ok {
			return nil
		}
		return map[string]any{key: plainValue(val.Args)}
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plainValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return v
	}
}
