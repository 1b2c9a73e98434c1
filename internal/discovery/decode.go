package discovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Decode はドキュメントのボディを解析してルート要素を返す。
// JSONはそのまま扱い、それ以外はYAMLとして解析してキー順を保ったJSONに変換する。
// ルートがオブジェクトでない場合は *ParseError を返す。
func Decode(raw []byte) (gjson.Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return gjson.Result{}, &ParseError{Err: errors.New("ドキュメントが空です")}
	}

	var doc []byte
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if !gjson.ValidBytes(trimmed) {
			return gjson.Result{}, &ParseError{Err: errors.New("不正なJSONです")}
		}
		doc = trimmed
	} else {
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return gjson.Result{}, &ParseError{Err: fmt.Errorf("不正なYAMLです: %w", err)}
		}
		var buf bytes.Buffer
		if err := writeYAMLAsJSON(&buf, &node); err != nil {
			return gjson.Result{}, &ParseError{Err: err}
		}
		doc = buf.Bytes()
	}

	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return gjson.Result{}, &ParseError{Err: errors.New("ドキュメントのルートがオブジェクトではありません")}
	}
	return root, nil
}

// writeYAMLAsJSON はYAMLノードをJSONとして書き出す。
// マッピングのキー順はYAML上の出現順を保つ。
func writeYAMLAsJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return errors.New("YAMLドキュメントが空です")
		}
		return writeYAMLAsJSON(buf, node.Content[0])
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLAsJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, child := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLAsJSON(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.AliasNode:
		return writeYAMLAsJSON(buf, node.Alias)
	case yaml.ScalarNode:
		return writeYAMLScalar(buf, node)
	}
	return fmt.Errorf("未対応のYAMLノードです: kind=%d", node.Kind)
}

// writeYAMLScalar はYAMLのスカラー値をJSONとして書き出す。
// 数値はJSONとして有効な表記であれば元の表記のまま書き出す（"2.0" が "2" にならないように）。
func writeYAMLScalar(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool", "!!int", "!!float":
		if json.Valid([]byte(node.Value)) {
			buf.WriteString(node.Value)
			return nil
		}
		var v any
		if err := node.Decode(&v); err == nil {
			if b, err := json.Marshal(v); err == nil {
				buf.Write(b)
				return nil
			}
		}
	}
	b, err := json.Marshal(node.Value)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
