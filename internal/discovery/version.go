package discovery

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// VersionUnknown はバージョンフィールドが存在しない場合の値。
const VersionUnknown = "unknown"

// DetectVersion はドキュメントが宣言しているOpenAPI/Swaggerのバージョンを返す。
// トップレベルの "openapi"、次に "swagger" を参照し、どちらもなければ VersionUnknown を返す。
func DetectVersion(root gjson.Result) string {
	for _, field := range []string{"openapi", "swagger"} {
		if v := root.Get(field); v.Exists() {
			// 数値の場合は 2.0 が "2" にならないよう元の表記を使う
			if v.Type == gjson.Number {
				return v.Raw
			}
			return v.String()
		}
	}
	return VersionUnknown
}

// ExtractorFor はバージョン文字列に対応するExtractorを返す。
// "3." で始まればOpenAPI 3.x、"2." で始まればSwagger 2.xとして扱う。
func ExtractorFor(version string, logger zerolog.Logger) (Extractor, error) {
	switch {
	case strings.HasPrefix(version, "3."):
		return NewOpenAPI3Extractor(logger), nil
	case strings.HasPrefix(version, "2."):
		return NewSwagger2Extractor(logger), nil
	}
	return nil, &UnsupportedVersionError{Version: version}
}
