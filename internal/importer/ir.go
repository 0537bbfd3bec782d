// Package importer turns existing CloudFormation templates into
// wetwire-codebuild project files.
//
// Templates are parsed with cloudformation-schema-go, which understands both
// the JSON form and the YAML short-form tags (!Ref, !GetAtt, !Sub). Parsed
// intrinsics are normalized back to their JSON map form so the rest of the
// package only deals with plain maps, slices, and scalars.
package importer

import (
	"sort"

	"github.com/lex00/cloudformation-schema-go/template"
)

// IntrinsicType is the kind of a parsed intrinsic function.
type IntrinsicType = template.IntrinsicType

// IRIntrinsic is an intrinsic function call as returned by the parser.
type IRIntrinsic = template.Intrinsic

const (
	IntrinsicRef         = template.IntrinsicRef
	IntrinsicGetAtt      = template.IntrinsicGetAtt
	IntrinsicSub         = template.IntrinsicSub
	IntrinsicJoin        = template.IntrinsicJoin
	IntrinsicSelect      = template.IntrinsicSelect
	IntrinsicGetAZs      = template.IntrinsicGetAZs
	IntrinsicIf          = template.IntrinsicIf
	IntrinsicEquals      = template.IntrinsicEquals
	IntrinsicAnd         = template.IntrinsicAnd
	IntrinsicOr          = template.IntrinsicOr
	IntrinsicNot         = template.IntrinsicNot
	IntrinsicCondition   = template.IntrinsicCondition
	IntrinsicFindInMap   = template.IntrinsicFindInMap
	IntrinsicBase64      = template.IntrinsicBase64
	IntrinsicCidr        = template.IntrinsicCidr
	IntrinsicImportValue = template.IntrinsicImportValue
	IntrinsicSplit       = template.IntrinsicSplit
	IntrinsicTransform   = template.IntrinsicTransform
)

// intrinsicKeys maps parsed intrinsics to their JSON keys.
var intrinsicKeys = map[IntrinsicType]string{
	IntrinsicRef:         "Ref",
	IntrinsicGetAtt:      "Fn::GetAtt",
	IntrinsicSub:         "Fn::Sub",
	IntrinsicJoin:        "Fn::Join",
	IntrinsicSelect:      "Fn::Select",
	IntrinsicGetAZs:      "Fn::GetAZs",
	IntrinsicIf:          "Fn::If",
	IntrinsicEquals:      "Fn::Equals",
	IntrinsicAnd:         "Fn::And",
	IntrinsicOr:          "Fn::Or",
	IntrinsicNot:         "Fn::Not",
	IntrinsicCondition:   "Condition",
	IntrinsicFindInMap:   "Fn::FindInMap",
	IntrinsicBase64:      "Fn::Base64",
	IntrinsicCidr:        "Fn::Cidr",
	IntrinsicImportValue: "Fn::ImportValue",
	IntrinsicSplit:       "Fn::Split",
	IntrinsicTransform:   "Fn::Transform",
}

// Parameter is a template parameter.
type Parameter struct {
	LogicalID     string
	Type          string
	Description   string
	Default       any
	AllowedValues []any
	NoEcho        bool
}

// Resource is a template resource with plain property values.
type Resource struct {
	LogicalID  string
	Type       string
	Properties map[string]any
	DependsOn  []string
}

// Template is a parsed CloudFormation template.
type Template struct {
	Description string
	SourceFile  string
	Parameters  map[string]*Parameter
	Resources   map[string]*Resource
}

// NewTemplate creates an empty template.
func NewTemplate() *Template {
	return &Template{
		Parameters: make(map[string]*Parameter),
		Resources:  make(map[string]*Resource),
	}
}

// ResourceIDs returns the logical ids of the resources of the given type,
// sorted.
func (t *Template) ResourceIDs(resourceType string) []string {
	var ids []string
	for id, r := range t.Resources {
		if r.Type == resourceType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
