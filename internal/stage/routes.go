package stage

import "github.com/copyleftdev/stagecheck/internal/wizardtypes"

// Route is one entry of the static route table. Variant is the path without
// its leading slash for question stages and empty otherwise.
type Route struct {
	Kind    wizardtypes.StageKind
	Variant string
	Path    string
	Heading string
}

func question(variant, heading string) Route {
	return Route{Kind: wizardtypes.StageQuestion, Variant: variant, Path: "/" + variant, Heading: heading}
}

// DefaultRoutes lists every stage of the demo wizard.
var DefaultRoutes = []Route{
	{Kind: wizardtypes.StageEmbark, Path: "/embark-stage", Heading: "Embark"},
	{Kind: wizardtypes.StageDebark, Path: "/debark-stage", Heading: "Debark"},
	{Kind: wizardtypes.StageConfirm, Path: "/confirm-stage", Heading: "Confirm"},

	question("string/string", "String"),
	question("string/string-enum", "String (Enum)"),
	question("string/string-any-of", "String (Any Of)"),
	question("string/string-one-of", "String (One Of)"),
	question("string/string-all-of", "String (All Of)"),

	question("number/number", "Number"),
	question("number/number-enum", "Number (Enum)"),
	question("number/number-any-of", "Number (Any Of)"),
	question("number/number-one-of", "Number (One Of)"),
	question("number/number-all-of", "Number (All Of)"),

	question("boolean/boolean", "Boolean"),
	question("boolean/boolean-enum", "Boolean (Enum)"),
	question("boolean/boolean-any-of", "Boolean (Any Of)"),
	question("boolean/boolean-one-of", "Boolean (One Of)"),
	question("boolean/boolean-all-of", "Boolean (All Of)"),

	question("null/null", "Null"),
	question("null/null-enum", "Null (Enum)"),
	question("null/null-any-of", "Null (Any Of)"),
	question("null/null-one-of", "Null (One Of)"),
	question("null/null-all-of", "Null (All Of)"),

	question("array/array-string-array", "Array (String - Array)"),
	question("array/array-string-object", "Array (String - Object)"),
	question("array/array-number-array", "Array (Number - Array)"),
	question("array/array-number-object", "Array (Number - Object)"),
	question("array/array-array-array", "Array (Array - Array)"),
	question("array/array-array-object", "Array (Array - Object)"),
	question("array/array-object-array", "Array (Object - Array)"),
	question("array/array-object-object", "Array (Object - Object)"),
	question("array/array-boolean-array", "Array (Boolean - Array)"),
	question("array/array-boolean-object", "Array (Boolean - Object)"),
	question("array/array-null-array", "Array (Null - Array)"),
	question("array/array-null-object", "Array (Null - Object)"),
	question("array/array-string-enum-array", "Array (String - Enum - Array)"),
	question("array/array-string-enum-object", "Array (String - Enum - Object)"),
	question("array/array-string-any-of-array", "Array (String - Any Of - Array)"),
	question("array/array-string-any-of-object", "Array (String - Any Of - Object)"),
	question("array/array-string-one-of-array", "Array (String - One Of - Array)"),
	question("array/array-string-one-of-object", "Array (String - One Of - Object)"),
	question("array/array-number-enum-array", "Array (Number - Enum - Array)"),
	question("array/array-number-enum-object", "Array (Number - Enum - Object)"),
	question("array/array-number-any-of-array", "Array (Number - Any Of - Array)"),
	question("array/array-number-any-of-object", "Array (Number - Any Of - Object)"),
	question("array/array-number-one-of-array", "Array (Number - One Of - Array)"),
	question("array/array-number-one-of-object", "Array (Number - One Of - Object)"),

	question("object/object-string", "Object (String)"),
	question("object/object-number", "Object (Number)"),
	question("object/object-array-array", "Object (Array - Array)"),
	question("object/object-array-object-string", "Object (Array - Object - String)"),
	question("object/object-array-object-number", "Object (Array - Object - Number)"),
	question("object/object-array-object-boolean", "Object (Array - Object - Boolean)"),
	question("object/object-array-object-null", "Object (Array - Object - Null)"),
	question("object/object-object", "Object (Object)"),
	question("object/object-boolean", "Object (Boolean)"),
	question("object/object-null", "Object (Null)"),
}
