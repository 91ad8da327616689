// Package compiler infers typed data models, fields, actions and
// inter-model relationships from a compiled SiteMap (component C9): the
// bridge between the engine's raw 128-dim feature vectors and a schema a
// client generator (C10) or cross-site unifier (C11) can consume.
package compiler

import "time"

// FieldSource records which extraction signal contributed a field
// occurrence, used to compute field confidence (§4.9 step 5). Each field
// carries a single source; no type tie-break between sources is performed.
type FieldSource uint8

const (
	SourceInferred FieldSource = iota
	SourceAriaLabel
	SourceCssPattern
	SourceMetaTag
	SourceDataAttribute
	SourceJsonLd
)

// confidence is the per-occurrence weight §4.9 step 5 assigns each
// source.
func (s FieldSource) confidence() float64 {
	switch s {
	case SourceJsonLd:
		return 0.99
	case SourceDataAttribute:
		return 0.95
	case SourceMetaTag:
		return 0.90
	case SourceCssPattern:
		return 0.85
	case SourceAriaLabel:
		return 0.80
	default:
		return 0.70
	}
}

func (s FieldSource) String() string {
	switch s {
	case SourceJsonLd:
		return "json_ld"
	case SourceDataAttribute:
		return "data_attribute"
	case SourceMetaTag:
		return "meta_tag"
	case SourceCssPattern:
		return "css_pattern"
	case SourceAriaLabel:
		return "aria_label"
	default:
		return "inferred"
	}
}

// FieldTypeKind is the closed tag for a ModelField's type, mirroring the
// spec's `String | Float | Integer | Bool | DateTime | Url | Enum(variants)
// | Object(name) | Array(inner)` sum type.
type FieldTypeKind uint8

const (
	TypeString FieldTypeKind = iota
	TypeFloat
	TypeInteger
	TypeBool
	TypeDateTime
	TypeURL
	TypeEnum
	TypeObject
	TypeArray
)

// FieldType is a closed sum type over the field shapes the compiler can
// infer. Enum carries its variants, Object its referenced model name,
// Array its element type (one level of nesting is all the compiler ever
// infers).
type FieldType struct {
	Kind       FieldTypeKind
	Variants   []string   // populated iff Kind == TypeEnum
	ObjectName string     // populated iff Kind == TypeObject
	Inner      *FieldType // populated iff Kind == TypeArray
}

func (t FieldType) String() string {
	switch t.Kind {
	case TypeString:
		return "String"
	case TypeFloat:
		return "Float"
	case TypeInteger:
		return "Integer"
	case TypeBool:
		return "Bool"
	case TypeDateTime:
		return "DateTime"
	case TypeURL:
		return "Url"
	case TypeEnum:
		return "Enum"
	case TypeObject:
		return "Object(" + t.ObjectName + ")"
	case TypeArray:
		if t.Inner != nil {
			return "Array(" + t.Inner.String() + ")"
		}
		return "Array"
	default:
		return "Unknown"
	}
}

// ModelField is one inferred attribute of a DataModel.
type ModelField struct {
	Name        string
	Type        FieldType
	Source      FieldSource
	Confidence  float64
	Nullable    bool
	Samples     []string
	FeatureDim  int // -1 when the field has no backing feature dimension
}

// DataModel is one inferred type, grouping every SiteMap node that maps
// to the same Schema.org type.
type DataModel struct {
	Name           string // simplified display name, e.g. "FAQ" for FAQPage
	SchemaOrgType  string // canonical Schema.org type, e.g. "FAQPage"
	Fields         []ModelField
	InstanceCount  int
	ExampleURLs    []string
	SearchAction   *string // name of the CompiledAction that searches this model, if any
	ListPageURL    *string
}

// ActionParam describes one parameter a CompiledAction's HTTP endpoint
// accepts.
type ActionParam struct {
	Name     string
	Type     string // "int" | "string" | "bool" | "float"
	Required bool
	Default  string // literal rendering of the default, empty if none
}

// CompiledAction is one invocable operation discovered on the SiteMap,
// deduplicated by (Model, Name).
type CompiledAction struct {
	Name             string
	Model            string
	IsInstanceMethod bool
	HTTPMethod       string
	Endpoint         string
	Params           []ActionParam
	ExecutionPath    string // "http" | "browser"
	RequiresAuth     bool
	Confidence       float64
}

// Cardinality classifies the shape of a relationship between two models.
type Cardinality uint8

const (
	CardinalityBelongsTo Cardinality = iota
	CardinalityHasOne
	CardinalityHasMany
	CardinalityManyToMany
)

func (c Cardinality) String() string {
	switch c {
	case CardinalityBelongsTo:
		return "belongs_to"
	case CardinalityHasOne:
		return "has_one"
	case CardinalityManyToMany:
		return "many_to_many"
	default:
		return "has_many"
	}
}

// ModelRelationship is one inferred edge-type-backed relationship between
// two models.
type ModelRelationship struct {
	FromModel   string
	ToModel     string
	EdgeType    string
	Name        string
	Cardinality Cardinality
	Count       int
}

// Stats summarizes a compiled schema at a glance.
type Stats struct {
	TotalModels           int
	TotalFields           int
	TotalInstances        int
	AverageFieldConfidence float64
}

// CompiledSchema is the complete output of compiling one SiteMap.
type CompiledSchema struct {
	Domain        string
	CompiledAt    time.Time
	Models        []DataModel
	Actions       []CompiledAction
	Relationships []ModelRelationship
	Stats         Stats
}

// ModelByName returns the model named name, or nil if absent.
func (s *CompiledSchema) ModelByName(name string) *DataModel {
	for i := range s.Models {
		if s.Models[i].Name == name {
			return &s.Models[i]
		}
	}
	return nil
}
