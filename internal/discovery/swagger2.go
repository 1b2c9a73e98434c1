package discovery

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	mimeJSON      = "application/json"
	mimeForm      = "application/x-www-form-urlencoded"
	mimeMultipart = "multipart/form-data"
)

// Swagger2Extractor はSwagger 2.xドキュメント用のExtractor。
//
// Swagger 2.xではリクエストボディが "in: body" または "in: formData" のパラメータとして
// 表現されるため、これらをparametersから分離し、OpenAPI 3.x形式のrequestBodyに変換する。
// これによりバージョンに関わらず同じ形のレコードが保存される。
type Swagger2Extractor struct {
	logger zerolog.Logger
}

// NewSwagger2Extractor は新しいSwagger2Extractorを生成する。
func NewSwagger2Extractor(logger zerolog.Logger) *Swagger2Extractor {
	return &Swagger2Extractor{logger: logger.With().Str("extractor", "swagger2").Logger()}
}

// Extract はSwagger 2.xのパラメータ構造を変換しながらエンドポイント候補を生成する。
func (x *Swagger2Extractor) Extract(root gjson.Result, projectID string) ([]Endpoint, error) {
	docConsumes := child(root, "consumes")
	return walkOperations(root, projectID, x.logger, func(_, op gjson.Result, e *Endpoint) {
		params := child(op, "parameters")
		if !params.Exists() {
			return
		}
		if !params.IsArray() {
			e.Parameters = serialize(params, "parameters", x.logger)
			return
		}

		var (
			plain    []json.RawMessage
			body     gjson.Result
			formData []gjson.Result
		)
		for _, p := range params.Array() {
			switch child(p, "in").String() {
			case "body":
				body = p
			case "formData":
				formData = append(formData, p)
			default:
				plain = append(plain, json.RawMessage(p.Raw))
			}
		}

		if len(plain) > 0 {
			e.Parameters = marshalField(plain, "parameters", x.logger)
		}

		consumes := child(op, "consumes")
		if !consumes.Exists() {
			consumes = docConsumes
		}
		switch {
		case body.Exists():
			e.RequestBody = marshalField(bodyRequest(body, consumes), "requestBody", x.logger)
		case len(formData) > 0:
			e.RequestBody = marshalField(formRequest(formData, consumes), "requestBody", x.logger)
		}
	})
}

// bodyRequest は "in: body" パラメータをOpenAPI 3.x形式のrequestBodyに変換する。
func bodyRequest(body, consumes gjson.Result) map[string]any {
	mime := mimeJSON
	if c := consumes.Array(); len(c) > 0 && c[0].String() != "" {
		mime = c[0].String()
	}

	media := map[string]any{}
	if schema := child(body, "schema"); schema.Exists() {
		media["schema"] = json.RawMessage(schema.Raw)
	}
	req := map[string]any{
		"content": map[string]any{mime: media},
	}
	if d := child(body, "description"); d.Exists() {
		req["description"] = d.String()
	}
	if child(body, "required").Bool() {
		req["required"] = true
	}
	return req
}

// formRequest は "in: formData" パラメータ群をオブジェクトスキーマのrequestBodyに変換する。
// ファイルパラメータを含むか、consumesにmultipart/form-dataがあればmultipartとして扱う。
func formRequest(params []gjson.Result, consumes gjson.Result) map[string]any {
	mime := mimeForm
	for _, c := range consumes.Array() {
		if strings.EqualFold(c.String(), mimeMultipart) {
			mime = mimeMultipart
		}
	}

	properties := map[string]any{}
	var required []string
	for _, p := range params {
		name := child(p, "name").String()
		prop := map[string]any{}
		p.ForEach(func(k, v gjson.Result) bool {
			switch k.String() {
			case "name", "in", "required":
			default:
				prop[k.String()] = json.RawMessage(v.Raw)
			}
			return true
		})
		if child(p, "type").String() == "file" {
			mime = mimeMultipart
			prop["type"] = "string"
			prop["format"] = "binary"
		}
		properties[name] = prop
		if child(p, "required").Bool() {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return map[string]any{
		"content": map[string]any{mime: map[string]any{"schema": schema}},
	}
}
