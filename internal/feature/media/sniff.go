package media

import (
	"bytes"
	"io"
	"net/http"

	"tech-news-api/internal/domain"
)

// 允许的类型 → 落盘扩展名。扩展名只由内容决定，客户端给的后缀一律丢弃；
// SVG 可以带脚本，不接受
var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffImage 读前 512 字节判断类型，非白名单图片拒绝；返回拼回去的 reader
func sniffImage(r io.Reader) (io.Reader, string, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", "", domain.Internal("read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, "", "", domain.Validation("empty file")
	}
	ctype := http.DetectContentType(head)
	ext, ok := imageExt[ctype]
	if !ok {
		return nil, "", "", domain.Validation("only png, jpeg, gif or webp images are accepted")
	}
	return io.MultiReader(bytes.NewReader(head), r), ctype, ext, nil
}
