package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// Validate はドキュメントをkin-openapiで構造検証する。
// 検証エラーは警告として扱い、スキャン自体は継続する。
// 外部参照（$ref）の解決は行わない。
func Validate(ctx context.Context, version string, doc []byte) error {
	switch {
	case strings.HasPrefix(version, "3."):
		loader := openapi3.NewLoader()
		loader.Context = ctx
		parsed, err := loader.LoadFromData(doc)
		if err != nil {
			return fmt.Errorf("OpenAPI 3ドキュメントの読み込みに失敗: %w", err)
		}
		return parsed.Validate(ctx)
	case strings.HasPrefix(version, "2."):
		var v2 openapi2.T
		if err := json.Unmarshal(doc, &v2); err != nil {
			return fmt.Errorf("Swagger 2ドキュメントの読み込みに失敗: %w", err)
		}
		v3, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return fmt.Errorf("Swagger 2からOpenAPI 3への変換に失敗: %w", err)
		}
		return v3.Validate(ctx)
	}
	return &UnsupportedVersionError{Version: version}
}
