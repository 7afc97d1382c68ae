package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
schemaVersion: "2.2"
description: Install and start nginx
parameters:
  version:
    type: String
    default: latest
    description: Package version
    allowedPattern: "^[a-z0-9.]+$"
  restart:
    type: Boolean
    default: true
  ports:
    type: StringList
    default: ["80", "443"]
    minItems: 1
mainSteps:
  - action: aws:runShellScript
    name: install
    precondition:
      StringEquals: [platformType, Linux]
    inputs:
      onFailure: exit
      timeoutSeconds: 600
      runCommand:
        - yum install -y nginx && systemctl start nginx
        - echo "done" > /tmp/marker
  - action: aws:runDocument
    name: configure
    inputs:
      documentType: SSMDocument
      documentPath: AWS-ConfigureNginx
      documentParameters:
        zeta: "1"
        alpha: "2"
`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	return doc
}

func validationErrors(t *testing.T, err error) *ValidationErrors {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationErrors
	require.True(t, errors.As(err, &verr), "expected *ValidationErrors, got %T: %v", err, err)
	return verr
}

func TestParseYAML(t *testing.T) {
	doc := mustParse(t, sampleYAML)

	assert.Equal(t, "2.2", doc.SchemaVersion)
	assert.Equal(t, "Install and start nginx", doc.Description)
	assert.Equal(t, []string{"version", "restart", "ports"}, doc.Parameters.Names())
	require.Len(t, doc.MainSteps, 2)

	step := doc.MainSteps[0]
	assert.Equal(t, "install", step.Name)
	inputs, ok := step.Inputs.(*RunShellScriptInputs)
	require.True(t, ok, "inputs type = %T", step.Inputs)
	assert.Len(t, inputs.RunCommand, 2)
	require.NotNil(t, inputs.OnFailure)
	assert.Equal(t, "exit", *inputs.OnFailure)
	assert.Equal(t, int64(600), inputs.TimeoutSeconds.Data)
	assert.Equal(t, Precondition{{Operator: "StringEquals", Operands: []string{"platformType", "Linux"}}}, step.Precondition)

	run, ok := doc.MainSteps[1].Inputs.(*RunDocumentInputs)
	require.True(t, ok)
	assert.Equal(t, "AWS-ConfigureNginx", run.DocumentPath)
}

func TestSchemaVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"2.2", false},
		{"2.3", false},
		{"3.0", false},
		{"3", false},
		{"2.10", false},
		{"2.0", true},
		{"2.1", true},
		{"1.9", true},
		{"2", true},
		{"two", true},
		{"2.x", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			src := "schemaVersion: \"" + tt.version + "\"\ndescription: d\nparameters: {}\nmainSteps: []\n"
			_, err := ParseYAML([]byte(src))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			verr := validationErrors(t, err)
			assert.True(t, verr.Has("schemaVersion"), "errors: %v", verr)
		})
	}
}

func TestSchemaVersionUnquoted(t *testing.T) {
	doc := mustParse(t, "schemaVersion: 2.2\ndescription: d\nparameters: {}\nmainSteps: []\n")
	assert.Equal(t, "2.2", doc.SchemaVersion)
}

func TestStructureCheckedBeforeSchemaVersion(t *testing.T) {
	_, err := ParseYAML([]byte("schemaVersion: \"1.0\"\nparameters: {}\nmainSteps: []\n"))
	verr := validationErrors(t, err)

	assert.True(t, verr.Has("description"))
	assert.False(t, verr.Has("schemaVersion"), "semantic rules must not run on a malformed tree")
}

func TestMinimalParameter(t *testing.T) {
	doc := mustParse(t, `
schemaVersion: "2.2"
description: d
parameters:
  name:
    type: String
mainSteps: []
`)
	p, ok := doc.Parameters.Get("name")
	require.True(t, ok)
	assert.Equal(t, TypeString, p.Type)
	assert.Nil(t, p.Description)
	assert.True(t, p.Default.IsZero())
}

func TestValidationFailures(t *testing.T) {
	const head = "schemaVersion: \"2.2\"\ndescription: d\n"

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{
			name:  "unknown action",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:teleport\n    name: a\n    inputs: {}\n",
			field: "mainSteps[0].action",
			msg:   "unknown step action",
		},
		{
			name:  "missing parameter type",
			body:  "parameters:\n  p:\n    description: x\nmainSteps: []\n",
			field: "parameters.p.type",
			msg:   "field required",
		},
		{
			name:  "bad parameter type",
			body:  "parameters:\n  p:\n    type: Float\nmainSteps: []\n",
			field: "parameters.p.type",
			msg:   "unexpected value",
		},
		{
			name:  "bad display type",
			body:  "parameters:\n  p:\n    type: String\n    displayType: dropdown\nmainSteps: []\n",
			field: "parameters.p.displayType",
			msg:   "unexpected value",
		},
		{
			name:  "negative maxChars",
			body:  "parameters:\n  p:\n    type: String\n    maxChars: -1\nmainSteps: []\n",
			field: "parameters.p.maxChars",
			msg:   "greater than or equal to 0",
		},
		{
			name:  "default with unsupported shape",
			body:  "parameters:\n  p:\n    type: String\n    default: [1, 2]\nmainSteps: []\n",
			field: "parameters.p.default",
			msg:   "default shape",
		},
		{
			name:  "bad onFailure",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    name: a\n    inputs:\n      onFailure: retry\n      runCommand: [ls]\n",
			field: "mainSteps[0].inputs.onFailure",
			msg:   "unexpected value",
		},
		{
			name:  "bad onSuccess",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    name: a\n    inputs:\n      onSuccess: successAndExit\n      runCommand: [ls]\n",
			field: "mainSteps[0].inputs.onSuccess",
			msg:   "unexpected value",
		},
		{
			name:  "finallyStep not a bool",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    name: a\n    inputs:\n      finallyStep: sometimes\n      runCommand: [ls]\n",
			field: "mainSteps[0].inputs.finallyStep",
			msg:   "valid boolean",
		},
		{
			name:  "missing action input",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    name: a\n    inputs: {}\n",
			field: "mainSteps[0].inputs.runCommand",
			msg:   "field required",
		},
		{
			name:  "missing step name",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    inputs:\n      runCommand: [ls]\n",
			field: "mainSteps[0].name",
			msg:   "field required",
		},
		{
			name:  "unknown input field",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    name: a\n    inputs:\n      runCommand: [ls]\n      shell: zsh\n",
			field: "mainSteps[0].inputs.shell",
			msg:   "unknown field",
		},
		{
			name:  "unknown top-level key",
			body:  "parameters: {}\nmainSteps: []\nassumeRole: arn\n",
			field: "assumeRole",
			msg:   "unknown field",
		},
		{
			name:  "duplicate parameter",
			body:  "parameters:\n  p:\n    type: String\n  p:\n    type: Integer\nmainSteps: []\n",
			field: "parameters.p",
			msg:   "duplicate key",
		},
		{
			name:  "mainSteps not a list",
			body:  "parameters: {}\nmainSteps: install\n",
			field: "mainSteps",
			msg:   "valid list",
		},
		{
			name:  "missing mainSteps",
			body:  "parameters: {}\n",
			field: "mainSteps",
			msg:   "field required",
		},
		{
			name:  "unresolved include",
			body:  "parameters: {}\nmainSteps:\n  - action: aws:runShellScript\n    name: a\n    inputs:\n      runCommand: !IncludeScript run.sh\n",
			field: "mainSteps[0].inputs.runCommand",
			msg:   "unresolved tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(head + tt.body))
			verr := validationErrors(t, err)
			require.True(t, verr.Has(tt.field), "no error for %s in %v", tt.field, verr)
			assert.Contains(t, verr.Error(), tt.msg)
		})
	}
}

func TestParseYAMLSyntaxErrorIsNotValidation(t *testing.T) {
	_, err := ParseYAML([]byte("schemaVersion: [unclosed"))
	require.Error(t, err)
	var verr *ValidationErrors
	assert.False(t, errors.As(err, &verr))
}

func TestParseEmpty(t *testing.T) {
	_, err := ParseYAML(nil)
	verr := validationErrors(t, err)
	assert.True(t, verr.Has("document"))
}

func TestDefaultShapes(t *testing.T) {
	tests := []struct {
		name    string
		def     string
		wantErr bool
	}{
		{"string", `"x"`, false},
		{"integer", `3`, false},
		{"boolean", `false`, false},
		{"string list", `["a", "b"]`, false},
		{"empty list", `[]`, false},
		{"string map", `{a: x, b: y}`, false},
		{"map of string lists", `{a: [x], b: [y, z]}`, false},
		{"list of string maps", `[{a: x}, {b: y}]`, false},
		{"float", `1.5`, true},
		{"mixed map", `{a: x, b: [y]}`, true},
		{"nested list", `[[a]]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "schemaVersion: \"2.2\"\ndescription: d\nparameters:\n  p:\n    type: String\n    default: " + tt.def + "\nmainSteps: []\n"
			_, err := ParseYAML([]byte(src))
			if tt.wantErr {
				verr := validationErrors(t, err)
				assert.True(t, verr.Has("parameters.p.default"))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMarshalCanonical(t *testing.T) {
	doc := mustParse(t, `
mainSteps:
  - name: hello
    inputs:
      runCommand: [echo hi]
      finallyStep: false
    action: aws:runShellScript
parameters:
  b:
    type: String
    description: second key declared first
  a:
    type: Integer
description: Say hi
schemaVersion: "2.2"
`)

	out, err := doc.MarshalCanonical()
	require.NoError(t, err)

	want := `{
    "schemaVersion": "2.2",
    "description": "Say hi",
    "parameters": {
        "b": {
            "description": "second key declared first",
            "type": "String"
        },
        "a": {
            "type": "Integer"
        }
    },
    "mainSteps": [
        {
            "action": "aws:runShellScript",
            "inputs": {
                "finallyStep": false,
                "runCommand": [
                    "echo hi"
                ]
            },
            "name": "hello"
        }
    ]
}`
	assert.Equal(t, want, string(out))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	doc := mustParse(t, sampleYAML)

	first, err := doc.MarshalCanonical()
	require.NoError(t, err)
	second, err := doc.MarshalCanonical()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, string(first), "null")
	assert.Contains(t, string(first), "&& systemctl start nginx", "scripts must not be HTML-escaped")
	assert.Contains(t, string(first), `"zeta": "1"`)
	assert.Less(t, strings.Index(string(first), `"zeta"`), strings.Index(string(first), `"alpha"`))
}

func TestRoundTrip(t *testing.T) {
	doc := mustParse(t, sampleYAML)

	out, err := doc.MarshalCanonical()
	require.NoError(t, err)

	back, err := ParseJSON(out)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back), Diff(doc, back))

	again, err := back.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"schemaVersion": "2.2",`))
	require.Error(t, err)
	var verr *ValidationErrors
	assert.False(t, errors.As(err, &verr))
}

func TestEqual(t *testing.T) {
	a := mustParse(t, sampleYAML)
	b := mustParse(t, sampleYAML)
	assert.True(t, a.Equal(b))
	assert.Empty(t, Diff(a, b))

	b.Description = "changed"
	assert.False(t, a.Equal(b))
	assert.Contains(t, Diff(a, b), "changed")
}

func TestEqualIgnoresParameterOrder(t *testing.T) {
	a := mustParse(t, "schemaVersion: \"2.2\"\ndescription: d\nparameters:\n  x: {type: String}\n  y: {type: Integer}\nmainSteps: []\n")
	b := mustParse(t, "schemaVersion: \"2.2\"\ndescription: d\nparameters:\n  y: {type: Integer}\n  x: {type: String}\nmainSteps: []\n")
	assert.True(t, a.Equal(b))
}

func TestEmptyListSurvivesRoundTrip(t *testing.T) {
	doc := mustParse(t, "schemaVersion: \"2.2\"\ndescription: d\nparameters:\n  x:\n    type: String\n    allowedValues: []\nmainSteps: []\n")

	out, err := doc.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"allowedValues": []`)

	back, err := ParseJSON(out)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
}

func TestActionsRegistry(t *testing.T) {
	names := Actions()
	assert.Contains(t, names, "aws:runShellScript")
	assert.Contains(t, names, "aws:runPowerShellScript")
	assert.IsIncreasing(t, names)

	for _, name := range names {
		newInputs, ok := Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, newInputs().Action())
	}

	_, ok := Lookup("aws:nope")
	assert.False(t, ok)
}

func TestAliasesResolve(t *testing.T) {
	doc := mustParse(t, `
schemaVersion: "2.2"
description: d
parameters: {}
mainSteps:
  - action: aws:runShellScript
    name: first
    inputs:
      runCommand: &cmds [uptime]
  - action: aws:runShellScript
    name: second
    inputs:
      runCommand: *cmds
`)
	second := doc.MainSteps[1].Inputs.(*RunShellScriptInputs)
	assert.Equal(t, []string{"uptime"}, second.RunCommand)
}

func TestMergeKeys(t *testing.T) {
	doc := mustParse(t, `
schemaVersion: "2.2"
description: d
parameters:
  base: &p
    type: String
    description: shared
    default: base
  other:
    <<: *p
    default: x
  multi:
    <<: [{type: Integer, description: first}, {type: String, maxChars: 3}]
mainSteps:
  - action: aws:runShellScript
    name: first
    inputs:
      runCommand: [uptime]
`)
	other, ok := doc.Parameters.Get("other")
	require.True(t, ok)
	assert.Equal(t, TypeString, other.Type)
	require.NotNil(t, other.Description)
	assert.Equal(t, "shared", *other.Description)
	assert.Equal(t, "x", other.Default.Data)

	multi, ok := doc.Parameters.Get("multi")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, multi.Type, "earlier merge sources win")
	require.NotNil(t, multi.MaxChars)
	assert.Equal(t, 3, *multi.MaxChars)

	// Merged keys keep their position; the explicit default overrides in place.
	data, err := doc.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"other": {
            "default": "x",
            "description": "shared",
            "type": "String"
        }`)
}

func TestMergeKeyRejectsScalar(t *testing.T) {
	_, err := ParseYAML([]byte(`
schemaVersion: "2.2"
description: d
parameters:
  other:
    <<: nope
    type: String
mainSteps: []
`))
	verr := validationErrors(t, err)
	assert.True(t, verr.Has("parameters.other"), verr.Error())
}

func TestPreconditionKeepsOrder(t *testing.T) {
	doc := mustParse(t, `
schemaVersion: "2.2"
description: d
parameters: {}
mainSteps:
  - action: aws:runShellScript
    name: first
    precondition:
      StringEquals: [platformType, Linux]
      AAA: [x]
    inputs:
      runCommand: [uptime]
`)
	pre := doc.MainSteps[0].Precondition
	require.Len(t, pre, 2)
	assert.Equal(t, "StringEquals", pre[0].Operator)
	assert.Equal(t, "AAA", pre[1].Operator)

	data, err := doc.MarshalCanonical()
	require.NoError(t, err)
	out := string(data)
	assert.Less(t, strings.Index(out, `"StringEquals"`), strings.Index(out, `"AAA"`))

	reordered := *doc
	reordered.MainSteps = []MainStep{doc.MainSteps[0]}
	reordered.MainSteps[0].Precondition = Precondition{pre[1], pre[0]}
	assert.True(t, doc.Equal(&reordered))

	again, err := ParseJSON(data)
	require.NoError(t, err)
	assert.True(t, doc.Equal(again))
}

func TestPreconditionIsOptional(t *testing.T) {
	doc := mustParse(t, `
schemaVersion: "2.2"
description: d
parameters: {}
mainSteps:
  - action: aws:runShellScript
    name: first
    inputs:
      runCommand: [uptime]
`)
	assert.Nil(t, doc.MainSteps[0].Precondition)
	data, err := doc.MarshalCanonical()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "precondition")
}

func TestValueEqual(t *testing.T) {
	obj1 := Value{Data: Object{{Key: "a", Value: Value{Data: "x"}}, {Key: "b", Value: Value{Data: int64(1)}}}}
	obj2 := Value{Data: Object{{Key: "b", Value: Value{Data: float64(1)}}, {Key: "a", Value: Value{Data: "x"}}}}

	assert.True(t, obj1.Equal(obj2))
	assert.False(t, obj1.Equal(Value{Data: "x"}))
	assert.True(t, Value{}.Equal(Value{}))
	assert.False(t, Value{Data: []Value{{Data: "a"}}}.Equal(Value{Data: []Value{{Data: "b"}}}))
}
