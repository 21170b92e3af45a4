// Package content 处理文章正文的三种编码：纯文本、Quill delta、HTML 片段。
// 编码在写入时确定并以 contentType 字段保存，读取时不再靠猜。
package content

import (
	"encoding/json"
	"strings"

	"tech-news-api/internal/domain"
)

type Kind string

const (
	Plain  Kind = "plain"
	Delta  Kind = "delta"
	Markup Kind = "markup"
)

func (k Kind) Valid() bool { return k == Plain || k == Delta || k == Markup }

type Content struct {
	Kind Kind
	Body string
}

// Op Quill delta 的一个操作；insert 可能是字符串或 {"image": "..."} 之类的嵌入
type Op struct {
	Insert     json.RawMessage        `json:"insert,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

type Document struct {
	Ops []Op `json:"ops"`
}

// Detect 老数据没有 contentType 时的判定规则
func Detect(body string) Kind {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "<") {
		return Markup
	}
	if _, ok := decodeDelta(trimmed); ok {
		return Delta
	}
	return Plain
}

// Parse 显式声明的类型优先；声明为 delta 但不是合法 delta 时报校验错
func Parse(hint, body string) (Content, error) {
	h := Kind(strings.ToLower(strings.TrimSpace(hint)))
	switch {
	case hint == "":
		return Content{Kind: Detect(body), Body: body}, nil
	case !h.Valid():
		return Content{}, domain.Validation("unknown contentType " + hint)
	case h == Delta:
		if _, ok := decodeDelta(strings.TrimSpace(body)); !ok {
			return Content{}, domain.Validation("content is not a valid delta document")
		}
	}
	return Content{Kind: h, Body: body}, nil
}

// Of 从已持久化的文章还原正文
func Of(a domain.Article) Content {
	k := Kind(a.ContentType)
	if !k.Valid() {
		k = Detect(a.Content)
	}
	return Content{Kind: k, Body: a.Content}
}

func decodeDelta(s string) (Document, bool) {
	if !strings.HasPrefix(s, "{") {
		return Document{}, false
	}
	var doc struct {
		Ops *[]Op `json:"ops"`
	}
	if err := json.Unmarshal([]byte(s), &doc); err != nil || doc.Ops == nil {
		return Document{}, false
	}
	return Document{Ops: *doc.Ops}, true
}

// text 返回 insert 为字符串时的文本
func (o Op) text() (string, bool) {
	var s string
	if len(o.Insert) == 0 || o.Insert[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(o.Insert, &s); err != nil {
		return "", false
	}
	return s, true
}

// embed 返回 {"image": "..."} 形式的嵌入
func (o Op) embed() (map[string]string, bool) {
	if len(o.Insert) == 0 || o.Insert[0] != '{' {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(o.Insert, &m); err != nil {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, true
}
