package fixture

import (
	"slices"
	"strconv"
	"strings"
)

// ValueType is what a text field accepts.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeNull    ValueType = "null"
)

// Accepts reports whether raw is a valid literal for the type.
func (t ValueType) Accepts(raw string) bool {
	switch t {
	case TypeString:
		return raw != ""
	case TypeNumber:
		_, err := strconv.ParseFloat(raw, 64)
		return err == nil
	case TypeBoolean:
		return raw == "true" || raw == "false"
	case TypeNull:
		return raw == "null"
	}
	return false
}

type Option struct {
	Value string
	Label string
}

// Question is one wizard page. A question with Options renders a radio
// group; otherwise it renders one text input per entry of Fields.
type Question struct {
	Path    string
	Heading string
	Options []Option
	Fields  []ValueType
	Labels  []string
}

func (q Question) IsRadio() bool { return len(q.Options) > 0 }

// FieldCount is the number of answers the question collects.
func (q Question) FieldCount() int {
	if q.IsRadio() {
		return 1
	}
	return len(q.Fields)
}

// Label is the summary label of the kth field (0-based).
func (q Question) Label(k int) string {
	if k < len(q.Labels) && q.Labels[k] != "" {
		return q.Labels[k]
	}
	return q.Heading
}

func (q Question) ChangeLabel(k int) string {
	return "Change " + strings.ToLower(q.Label(k))
}

// Accept validates the raw value of the kth field.
func (q Question) Accept(k int, raw string) bool {
	if q.IsRadio() {
		return slices.ContainsFunc(q.Options, func(o Option) bool { return o.Value == raw })
	}
	return k < len(q.Fields) && q.Fields[k].Accepts(raw)
}

// Display is how the summary renders a stored raw value.
func (q Question) Display(raw string) string {
	for _, o := range q.Options {
		if o.Value == raw {
			return o.Label
		}
	}
	return raw
}

type Collection struct {
	Value     string
	Label     string
	Questions []Question
}

// Find returns the index of the question served at path, or -1.
func (c Collection) Find(path string) int {
	return slices.IndexFunc(c.Questions, func(q Question) bool { return q.Path == path })
}

var (
	words    = []Option{{"0", "One"}, {"1", "Two"}, {"2", "Three"}}
	digits   = []Option{{"0", "1"}, {"1", "2"}, {"2", "3"}}
	bools    = []Option{{"0", "true"}, {"1", "false"}}
	boolsCap = []Option{{"0", "True"}, {"1", "False"}}
	nulls    = []Option{{"0", "null"}}
	nullsCap = []Option{{"0", "Null"}}

	composite       = []ValueType{TypeString, TypeNumber, TypeBoolean, TypeNull}
	compositeLabels = []string{"String", "Number", "Boolean", "Null"}
)

func text(path, heading string, t ValueType, label string) Question {
	return Question{Path: path, Heading: heading, Fields: []ValueType{t}, Labels: []string{label}}
}

func radio(path, heading string, opts []Option) Question {
	return Question{Path: path, Heading: heading, Options: opts}
}

func compositeOf(path, heading string) Question {
	return Question{Path: path, Heading: heading, Fields: composite, Labels: compositeLabels}
}

// DemoCollections mirrors the collections of the zashiki demo wizard.
func DemoCollections() []Collection {
	return []Collection{
		{Value: "string", Label: "String", Questions: []Question{
			text("/string/string", "String", TypeString, "String"),
			radio("/string/string-enum", "String (Enum)", words),
			radio("/string/string-any-of", "String (Any Of)", words),
			radio("/string/string-one-of", "String (One Of)", words),
			text("/string/string-all-of", "String (All Of)", TypeString, "String"),
		}},
		{Value: "number", Label: "Number", Questions: []Question{
			text("/number/number", "Number", TypeNumber, "Number"),
			radio("/number/number-enum", "Number (Enum)", digits),
			radio("/number/number-any-of", "Number (Any Of)", words),
			radio("/number/number-one-of", "Number (One Of)", words),
			text("/number/number-all-of", "Number (All Of)", TypeNumber, "Number"),
		}},
		{Value: "boolean", Label: "Boolean", Questions: []Question{
			text("/boolean/boolean", "Boolean", TypeBoolean, "Boolean"),
			radio("/boolean/boolean-enum", "Boolean (Enum)", bools),
			radio("/boolean/boolean-any-of", "Boolean (Any Of)", boolsCap),
			radio("/boolean/boolean-one-of", "Boolean (One Of)", boolsCap),
			text("/boolean/boolean-all-of", "Boolean (All Of)", TypeBoolean, "Boolean"),
		}},
		{Value: "null", Label: "Null", Questions: []Question{
			text("/null/null", "Null", TypeNull, "Null"),
			radio("/null/null-enum", "Null (Enum)", nulls),
			radio("/null/null-any-of", "Null (Any Of)", nullsCap),
			radio("/null/null-one-of", "Null (One Of)", nullsCap),
			text("/null/null-all-of", "Null (All Of)", TypeNull, "Null"),
		}},
		{Value: "array", Label: "Array", Questions: []Question{
			text("/array/array-string-array", "Array (String - Array)", TypeString, "String"),
			text("/array/array-string-object", "Array (String - Object)", TypeString, "String"),
			text("/array/array-number-array", "Array (Number - Array)", TypeNumber, "Number"),
			text("/array/array-number-object", "Array (Number - Object)", TypeNumber, "Number"),
			compositeOf("/array/array-array-array", "Array (Array - Array)"),
			compositeOf("/array/array-array-object", "Array (Array - Object)"),
			compositeOf("/array/array-object-array", "Array (Object - Array)"),
			compositeOf("/array/array-object-object", "Array (Object - Object)"),
			text("/array/array-boolean-array", "Array (Boolean - Array)", TypeBoolean, "Boolean"),
			text("/array/array-boolean-object", "Array (Boolean - Object)", TypeBoolean, "Boolean"),
			text("/array/array-null-array", "Array (Null - Array)", TypeNull, "Null"),
			text("/array/array-null-object", "Array (Null - Object)", TypeNull, "Null"),
			radio("/array/array-string-enum-array", "Array (String - Enum - Array)", words),
			radio("/array/array-string-enum-object", "Array (String - Enum - Object)", words),
			radio("/array/array-string-any-of-array", "Array (String - Any Of - Array)", words),
			radio("/array/array-string-any-of-object", "Array (String - Any Of - Object)", words),
			radio("/array/array-string-one-of-array", "Array (String - One Of - Array)", words),
			radio("/array/array-string-one-of-object", "Array (String - One Of - Object)", words),
			radio("/array/array-number-enum-array", "Array (Number - Enum - Array)", digits),
			radio("/array/array-number-enum-object", "Array (Number - Enum - Object)", digits),
			radio("/array/array-number-any-of-array", "Array (Number - Any Of - Array)", words),
			radio("/array/array-number-any-of-object", "Array (Number - Any Of - Object)", words),
			radio("/array/array-number-one-of-array", "Array (Number - One Of - Array)", words),
			radio("/array/array-number-one-of-object", "Array (Number - One Of - Object)", words),
		}},
		{Value: "object", Label: "Object", Questions: []Question{
			text("/object/object-string", "Object (String)", TypeString, "String"),
			text("/object/object-number", "Object (Number)", TypeNumber, "Number"),
			compositeOf("/object/object-array-array", "Object (Array - Array)"),
			text("/object/object-array-object-string", "Object (Array - Object - String)", TypeString, "String"),
			text("/object/object-array-object-number", "Object (Array - Object - Number)", TypeNumber, "Number"),
			text("/object/object-array-object-boolean", "Object (Array - Object - Boolean)", TypeBoolean, "Boolean"),
			text("/object/object-array-object-null", "Object (Array - Object - Null)", TypeNull, "Null"),
			compositeOf("/object/object-object", "Object (Object)"),
			text("/object/object-boolean", "Object (Boolean)", TypeBoolean, "Boolean"),
			text("/object/object-null", "Object (Null)", TypeNull, "Null"),
		}},
	}
}
