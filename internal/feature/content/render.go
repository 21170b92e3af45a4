package content

import (
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Renderer 把任意编码的正文转成安全的 HTML
type Renderer struct {
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("p", "span", "pre", "code")
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Renderer{policy: p}
}

func (r *Renderer) Render(c Content) string {
	var raw string
	switch c.Kind {
	case Markup:
		raw = c.Body
	case Delta:
		raw = deltaHTML(c.Body)
	default:
		raw = plainHTML(c.Body)
	}
	return r.policy.Sanitize(raw)
}

// plainHTML 一行一个段落，和旧前端 split('\n') 的展示一致
func plainHTML(body string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}

// deltaHTML 覆盖 Quill 常用格式：段落/标题、粗斜体下划线、链接、图片
func deltaHTML(body string) string {
	doc, ok := decodeDelta(strings.TrimSpace(body))
	if !ok {
		return plainHTML(body)
	}
	var out, line strings.Builder
	flush := func(attrs map[string]interface{}) {
		tag := "p"
		if h, ok := attrs["header"].(float64); ok && h >= 1 && h <= 6 {
			tag = "h" + strconv.Itoa(int(h))
		}
		out.WriteString("<" + tag + ">")
		if line.Len() == 0 {
			out.WriteString("<br>")
		} else {
			out.WriteString(line.String())
		}
		out.WriteString("</" + tag + ">")
		line.Reset()
	}

	for _, op := range doc.Ops {
		if e, ok := op.embed(); ok {
			if src := e["image"]; src != "" {
				line.WriteString(`<img src="` + html.EscapeString(src) + `">`)
			}
			continue
		}
		text, ok := op.text()
		if !ok {
			continue
		}
		parts := strings.Split(text, "\n")
		for i, part := range parts {
			if part != "" {
				line.WriteString(inline(part, op.Attributes))
			}
			if i < len(parts)-1 {
				// 块级属性挂在换行符上
				flush(op.Attributes)
			}
		}
	}
	if line.Len() > 0 {
		flush(nil)
	}
	return out.String()
}

func inline(text string, attrs map[string]interface{}) string {
	s := html.EscapeString(text)
	if on(attrs, "bold") {
		s = "<strong>" + s + "</strong>"
	}
	if on(attrs, "italic") {
		s = "<em>" + s + "</em>"
	}
	if on(attrs, "underline") {
		s = "<u>" + s + "</u>"
	}
	if on(attrs, "strike") {
		s = "<s>" + s + "</s>"
	}
	if href, ok := attrs["link"].(string); ok && href != "" {
		s = `<a href="` + html.EscapeString(href) + `">` + s + "</a>"
	}
	return s
}

func on(attrs map[string]interface{}, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}
