package discovery

import (
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// OpenAPI3Extractor はOpenAPI 3.xドキュメント用のExtractor。
type OpenAPI3Extractor struct {
	logger zerolog.Logger
}

// NewOpenAPI3Extractor は新しいOpenAPI3Extractorを生成する。
func NewOpenAPI3Extractor(logger zerolog.Logger) *OpenAPI3Extractor {
	return &OpenAPI3Extractor{logger: logger.With().Str("extractor", "openapi3").Logger()}
}

// Extract はparametersとrequestBodyをそのままシリアライズしてエンドポイント候補を生成する。
func (x *OpenAPI3Extractor) Extract(root gjson.Result, projectID string) ([]Endpoint, error) {
	return walkOperations(root, projectID, x.logger, func(_, op gjson.Result, e *Endpoint) {
		e.Parameters = serialize(child(op, "parameters"), "parameters", x.logger)
		e.RequestBody = serialize(child(op, "requestBody"), "requestBody", x.logger)
	})
}
