package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_JSON(t *testing.T) {
	t.Parallel()

	root, err := Decode([]byte("  \n{\"openapi\":\"3.0.0\",\"paths\":{}}\n"))
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", root.Get("openapi").String())
}

func TestDecode_YAML(t *testing.T) {
	t.Parallel()

	doc := `
swagger: 2.0
info:
  title: Pets
paths:
  /pets:
    get:
      summary: List pets
      tags: [pets, read]
      responses:
        "404":
          description: none
        200:
          description: ok
      security: []
    x-flag: yes
`
	root, err := Decode([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "2.0", DetectVersion(root))

	endpoints, err := NewSwagger2Extractor(nopLogger).Extract(root, "p")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "List pets", endpoints[0].Description)
	assert.Equal(t, "pets, read", endpoints[0].Tags)
	assert.Equal(t, "404,200", endpoints[0].StatusCodes)
	assert.Equal(t, `{"description":"ok"}`, endpoints[0].ResponseBody)
	assert.False(t, endpoints[0].RequiresAuth)
}

func TestDecode_YAMLAnchors(t *testing.T) {
	t.Parallel()

	doc := `
openapi: 3.0.3
x-common: &common
  description: shared
paths:
  /a:
    get:
      responses:
        "200": *common
`
	root, err := Decode([]byte(doc))
	require.NoError(t, err)

	endpoints, err := NewOpenAPI3Extractor(nopLogger).Extract(root, "p")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, `{"description":"shared"}`, endpoints[0].ResponseBody)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"空":        "   ",
		"不正なJSON":  `{"openapi":`,
		"ルートが配列":   `[1,2,3]`,
		"ルートがスカラー": `just a string`,
		"不正なYAML":  "a: [1, 2\nb: c",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(doc))
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestDetectVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		doc  string
		want string
	}{
		{`{"openapi":"3.1.0"}`, "3.1.0"},
		{`{"swagger":"2.0"}`, "2.0"},
		{`{"swagger":2.0}`, "2.0"},
		{`{"openapi":"3.0.0","swagger":"2.0"}`, "3.0.0"},
		{`{"info":{}}`, VersionUnknown},
	}
	for _, tt := range tests {
		root, err := Decode([]byte(tt.doc))
		require.NoError(t, err)
		assert.Equal(t, tt.want, DetectVersion(root), tt.doc)
	}
}

func TestExtractorFor(t *testing.T) {
	t.Parallel()

	x, err := ExtractorFor("3.0.2", nopLogger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAPI3Extractor{}, x)

	x, err = ExtractorFor("2.0", nopLogger)
	require.NoError(t, err)
	assert.IsType(t, &Swagger2Extractor{}, x)

	for _, v := range []string{"1.0", "unknown", "", "4.0", "3"} {
		_, err := ExtractorFor(v, nopLogger)
		var verr *UnsupportedVersionError
		require.ErrorAs(t, err, &verr, v)
		assert.Equal(t, v, verr.Version)
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	m, err := ParseMethod("patch")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, m)

	_, err = ParseMethod("trace")
	assert.Error(t, err)
}
