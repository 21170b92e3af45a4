package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var urlRe = regexp.MustCompile(`https?://[^\s"'<>()]+`)

// References 正文里引用的图片地址（去重，保持出现顺序）
func References(c Content) []string {
	var refs []string
	switch c.Kind {
	case Markup:
		refs = markupImages(c.Body)
	case Delta:
		refs = deltaImages(c.Body)
	default:
		refs = plainURLs(c.Body)
	}
	return dedupe(refs)
}

// plainURLs 句末标点不算 URL 的一部分
func plainURLs(body string) []string {
	var out []string
	for _, u := range urlRe.FindAllString(body, -1) {
		if u = strings.TrimRight(u, ".,;:!?"); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func markupImages(body string) []string {
	var out []string
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" && len(val) > 0 {
					out = append(out, string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}

func deltaImages(body string) []string {
	doc, ok := decodeDelta(strings.TrimSpace(body))
	if !ok {
		return nil
	}
	var out []string
	for _, op := range doc.Ops {
		if e, ok := op.embed(); ok && e["image"] != "" {
			out = append(out, e["image"])
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
