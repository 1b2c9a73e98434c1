package discovery

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Extractor はドキュメントからエンドポイント候補を抽出するインターフェース。
// ストアの状態を参照せず、I/Oも行わない。
type Extractor interface {
	Extract(root gjson.Result, projectID string) ([]Endpoint, error)
}

// operationHook はバージョン固有のフィールド（parameters、requestBody）を埋める関数。
type operationHook func(root, op gjson.Result, e *Endpoint)

// walkOperations は "paths" 配下をドキュメント上の順序で走査し、
// HTTPメソッドに該当するフィールドごとにエンドポイント候補を生成する。
// "paths" が存在しない場合は空のスライスを返す。
func walkOperations(root gjson.Result, projectID string, logger zerolog.Logger, hook operationHook) ([]Endpoint, error) {
	endpoints := []Endpoint{}

	paths := root.Get("paths")
	if !paths.IsObject() {
		logger.Warn().Msg("ドキュメントにpathsが存在しません")
		return endpoints, nil
	}

	var walkErr error
	paths.ForEach(func(pathKey, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		path := pathKey.String()
		item.ForEach(func(field, op gjson.Result) bool {
			// parameters、servers等のメソッド以外のフィールドは無視する
			if !isHTTPMethod(field.String()) {
				return true
			}
			method, err := ParseMethod(field.String())
			if err != nil {
				walkErr = err
				return false
			}

			log := logger.With().Str("method", string(method)).Str("path", path).Logger()
			e := Endpoint{
				ProjectID:    projectID,
				Method:       method,
				Path:         path,
				Origin:       OriginDiscovered,
				Description:  firstText(op, "summary", "description"),
				Tags:         joinTags(op),
				ResponseBody: successResponse(op, log),
				StatusCodes:  statusCodes(op),
				RequiresAuth: requiresAuth(op),
			}
			hook(root, op, &e)

			endpoints = append(endpoints, e)
			log.Debug().Msg("エンドポイントを検出しました")
			return true
		})
		return walkErr == nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return endpoints, nil
}

// child はオブジェクトから指定キーの子要素を返す。
// gjsonのパス構文を経由しないため、"." や "*" を含むキーも扱える。
func child(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result
	if !obj.IsObject() {
		return found
	}
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
			return false
		}
		return true
	})
	return found
}

// firstText は指定フィールドのうち最初に存在するものの文字列値を返す。
func firstText(op gjson.Result, fields ...string) string {
	for _, f := range fields {
		if v := child(op, f); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// joinTags は "tags" 配列の値を ", " で連結する。配列でなければ空文字列を返す。
func joinTags(op gjson.Result) string {
	tags := child(op, "tags")
	if !tags.IsArray() {
		return ""
	}
	values := make([]string, 0)
	for _, t := range tags.Array() {
		values = append(values, t.String())
	}
	return strings.Join(values, ", ")
}

// statusCodes は "responses" のキーをドキュメント上の順序で "," 連結する。
// "responses" が存在しない（オブジェクトでない）場合は DefaultStatusCodes を返す。
func statusCodes(op gjson.Result) string {
	responses := child(op, "responses")
	if !responses.IsObject() {
		return DefaultStatusCodes
	}
	codes := make([]string, 0)
	responses.ForEach(func(code, _ gjson.Result) bool {
		codes = append(codes, code.String())
		return true
	})
	return strings.Join(codes, ",")
}

// successResponse は "200"、なければ "201" のレスポンスをシリアライズして返す。
func successResponse(op gjson.Result, logger zerolog.Logger) string {
	responses := child(op, "responses")
	if !responses.IsObject() {
		return ""
	}
	for _, code := range []string{"200", "201"} {
		if r := child(responses, code); r.Exists() {
			return serialize(r, "responseBody", logger)
		}
	}
	return ""
}

// requiresAuth は "security" が空でない配列の場合にtrueを返す。
// ドキュメント全体のsecurity指定は考慮しない。
func requiresAuth(op gjson.Result) bool {
	security := child(op, "security")
	return security.IsArray() && len(security.Array()) > 0
}

// serialize はサブツリーをコンパクトなJSON文字列に変換する。
// 失敗した場合はログに記録して空文字列を返す。フィールド単位の失敗で抽出全体を止めない。
func serialize(v gjson.Result, field string, logger zerolog.Logger) string {
	if !v.Exists() {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
		logger.Warn().Err(err).Str("field", field).Msg("フィールドのシリアライズに失敗しました")
		return ""
	}
	return buf.String()
}

// marshalField は組み立てた値をJSON文字列に変換する。失敗時の扱いはserializeと同じ。
func marshalField(v any, field string, logger zerolog.Logger) string {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Warn().Err(err).Str("field", field).Msg("フィールドのシリアライズに失敗しました")
		return ""
	}
	return string(b)
}
