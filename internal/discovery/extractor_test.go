package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func extract3(t *testing.T, doc string) []Endpoint {
	t.Helper()
	root, err := Decode([]byte(doc))
	require.NoError(t, err)
	endpoints, err := NewOpenAPI3Extractor(nopLogger).Extract(root, "project-1")
	require.NoError(t, err)
	return endpoints
}

func TestOpenAPI3Extractor_Basic(t *testing.T) {
	t.Parallel()

	endpoints := extract3(t, `{"openapi":"3.0.0","paths":{"/users":{"get":{"summary":"List users","responses":{"200":{}}}}}}`)

	require.Len(t, endpoints, 1)
	e := endpoints[0]
	assert.Equal(t, "project-1", e.ProjectID)
	assert.Equal(t, MethodGet, e.Method)
	assert.Equal(t, "/users", e.Path)
	assert.Equal(t, "List users", e.Description)
	assert.Equal(t, OriginDiscovered, e.Origin)
	assert.Equal(t, "200", e.StatusCodes)
	assert.Equal(t, "{}", e.ResponseBody)
	assert.False(t, e.RequiresAuth)
	assert.Empty(t, e.Tags)
	assert.Empty(t, e.Parameters)
	assert.Empty(t, e.RequestBody)
}

func TestOpenAPI3Extractor_NoPaths(t *testing.T) {
	t.Parallel()

	for name, doc := range map[string]string{
		"pathsなし":  `{"openapi":"3.0.0"}`,
		"pathsが空":  `{"openapi":"3.0.0","paths":{}}`,
		"pathsが配列": `{"openapi":"3.0.0","paths":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			endpoints := extract3(t, doc)
			assert.NotNil(t, endpoints)
			assert.Empty(t, endpoints)
		})
	}
}

func TestOpenAPI3Extractor_MethodFilter(t *testing.T) {
	t.Parallel()

	doc := `{"openapi":"3.0.1","paths":{"/pets/{id}":{
		"parameters":[{"name":"id","in":"path"}],
		"servers":[{"url":"http://example.com"}],
		"summary":"path item",
		"GET":{"summary":"upper"},
		"Delete":{"summary":"mixed"},
		"trace":{"summary":"not supported"},
		"x-internal":{"summary":"extension"},
		"options":{},
		"head":{},
		"patch":{},
		"put":{},
		"post":{}
	}}}`

	endpoints := extract3(t, doc)

	var got []Method
	for _, e := range endpoints {
		got = append(got, e.Method)
	}
	assert.Equal(t, []Method{MethodGet, MethodDelete, MethodOptions, MethodHead, MethodPatch, MethodPut, MethodPost}, got)
}

func TestOpenAPI3Extractor_Fields(t *testing.T) {
	t.Parallel()

	doc := `{"openapi":"3.0.0","paths":{"/orders":{"post":{
		"description":"only description",
		"tags":["Orders", "Billing"],
		"parameters":[ {"name":"trace", "in":"header"} ],
		"requestBody":{"content":{"application/json":{"schema":{"type":"object"}}}},
		"responses":{"404":{"description":"nf"},"201":{"description":"created"},"500":{}},
		"security":[{"bearerAuth":[]}]
	}}}}`

	endpoints := extract3(t, doc)
	require.Len(t, endpoints, 1)
	e := endpoints[0]

	assert.Equal(t, MethodPost, e.Method)
	assert.Equal(t, "only description", e.Description)
	assert.Equal(t, "Orders, Billing", e.Tags)
	assert.Equal(t, `[{"name":"trace","in":"header"}]`, e.Parameters)
	assert.Equal(t, `{"content":{"application/json":{"schema":{"type":"object"}}}}`, e.RequestBody)
	assert.Equal(t, `{"description":"created"}`, e.ResponseBody)
	assert.Equal(t, "404,201,500", e.StatusCodes)
	assert.True(t, e.RequiresAuth)
}

func TestOpenAPI3Extractor_SummaryPreferred(t *testing.T) {
	t.Parallel()

	endpoints := extract3(t, `{"openapi":"3.0.0","paths":{"/a":{"get":{"description":"d","summary":"s"}}}}`)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "s", endpoints[0].Description)
}

func TestOpenAPI3Extractor_ResponseSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responses string
		want      string
		codes     string
	}{
		{"200を優先する", `{"201":{"description":"b"},"200":{"description":"a"}}`, `{"description":"a"}`, "201,200"},
		{"200がなければ201", `{"201":{"description":"b"},"400":{}}`, `{"description":"b"}`, "201,400"},
		{"どちらもなければ空", `{"204":{},"default":{}}`, "", "204,default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			endpoints := extract3(t, `{"openapi":"3.0.0","paths":{"/a":{"get":{"responses":`+tt.responses+`}}}}`)
			require.Len(t, endpoints, 1)
			assert.Equal(t, tt.want, endpoints[0].ResponseBody)
			assert.Equal(t, tt.codes, endpoints[0].StatusCodes)
		})
	}
}

func TestOpenAPI3Extractor_DefaultsWithoutResponses(t *testing.T) {
	t.Parallel()

	endpoints := extract3(t, `{"openapi":"3.0.0","paths":{"/a":{"get":{"tags":"not-an-array","security":[]}}}}`)
	require.Len(t, endpoints, 1)
	e := endpoints[0]
	assert.Equal(t, DefaultStatusCodes, e.StatusCodes)
	assert.Empty(t, e.ResponseBody)
	assert.Empty(t, e.Tags)
	assert.Empty(t, e.Description)
	assert.False(t, e.RequiresAuth)
}

func TestOpenAPI3Extractor_DocumentLevelSecurityIgnored(t *testing.T) {
	t.Parallel()

	endpoints := extract3(t, `{"openapi":"3.0.0","security":[{"apiKey":[]}],"paths":{"/a":{"get":{}}}}`)
	require.Len(t, endpoints, 1)
	assert.False(t, endpoints[0].RequiresAuth)
}

func TestOpenAPI3Extractor_KeepsDocumentOrder(t *testing.T) {
	t.Parallel()

	endpoints := extract3(t, `{"openapi":"3.0.0","paths":{"/z":{"post":{}},"/a":{"get":{}},"/m.n":{"put":{}}}}`)
	require.Len(t, endpoints, 3)
	assert.Equal(t, "/z", endpoints[0].Path)
	assert.Equal(t, "/a", endpoints[1].Path)
	assert.Equal(t, "/m.n", endpoints[2].Path)
}

func TestSwagger2Extractor_BodyParameter(t *testing.T) {
	t.Parallel()

	doc := `{"swagger":"2.0","consumes":["application/xml"],"paths":{"/pets":{"post":{
		"summary":"Add pet",
		"parameters":[
			{"name":"X-Trace","in":"header","type":"string"},
			{"name":"pet","in":"body","required":true,"description":"Pet object","schema":{"$ref":"#/definitions/Pet"}}
		],
		"responses":{"201":{"description":"created","schema":{"type":"object"}},"405":{}}
	}}}}`
	root, err := Decode([]byte(doc))
	require.NoError(t, err)

	endpoints, err := NewSwagger2Extractor(nopLogger).Extract(root, "p")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	e := endpoints[0]

	assert.Equal(t, `[{"name":"X-Trace","in":"header","type":"string"}]`, e.Parameters)
	assert.JSONEq(t, `{
		"content":{"application/xml":{"schema":{"$ref":"#/definitions/Pet"}}},
		"description":"Pet object",
		"required":true
	}`, e.RequestBody)
	assert.Equal(t, `{"description":"created","schema":{"type":"object"}}`, e.ResponseBody)
	assert.Equal(t, "201,405", e.StatusCodes)
}

func TestSwagger2Extractor_OperationConsumesWins(t *testing.T) {
	t.Parallel()

	doc := `{"swagger":"2.0","consumes":["application/xml"],"paths":{"/pets":{"put":{
		"consumes":["application/vnd.pet+json"],
		"parameters":[{"name":"pet","in":"body","schema":{"type":"object"}}]
	}}}}`
	root, err := Decode([]byte(doc))
	require.NoError(t, err)

	endpoints, err := NewSwagger2Extractor(nopLogger).Extract(root, "p")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.JSONEq(t, `{"content":{"application/vnd.pet+json":{"schema":{"type":"object"}}}}`, endpoints[0].RequestBody)
	assert.Empty(t, endpoints[0].Parameters)
}

func TestSwagger2Extractor_FormData(t *testing.T) {
	t.Parallel()

	doc := `{"swagger":"2.0","paths":{"/upload":{"post":{
		"parameters":[
			{"name":"id","in":"path","required":true,"type":"string"},
			{"name":"note","in":"formData","type":"string","description":"memo"},
			{"name":"file","in":"formData","type":"file","required":true}
		]
	}}}}`
	root, err := Decode([]byte(doc))
	require.NoError(t, err)

	endpoints, err := NewSwagger2Extractor(nopLogger).Extract(root, "p")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	e := endpoints[0]

	assert.Equal(t, `[{"name":"id","in":"path","required":true,"type":"string"}]`, e.Parameters)
	assert.JSONEq(t, `{"content":{"multipart/form-data":{"schema":{
		"type":"object",
		"properties":{
			"note":{"type":"string","description":"memo"},
			"file":{"type":"string","format":"binary"}
		},
		"required":["file"]
	}}}}`, e.RequestBody)
}

func TestSwagger2Extractor_URLEncodedForm(t *testing.T) {
	t.Parallel()

	doc := `{"swagger":"2.0","paths":{"/login":{"post":{
		"parameters":[{"name":"user","in":"formData","type":"string","required":true}]
	}}}}`
	root, err := Decode([]byte(doc))
	require.NoError(t, err)

	endpoints, err := NewSwagger2Extractor(nopLogger).Extract(root, "p")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.True(t, gjson.Get(endpoints[0].RequestBody, `content.application/x-www-form-urlencoded`).Exists())
	assert.Empty(t, endpoints[0].Parameters)
}
