package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"tech-news-api/internal/domain"
	"tech-news-api/internal/feature/media"
	httpez "tech-news-api/internal/transport/http/ez"
)

// UploadHandler 富文本编辑器的内嵌图片上传
type UploadHandler struct {
	media *media.Manager
}

func NewUploadHandler(m *media.Manager) *UploadHandler { return &UploadHandler{media: m} }

type uploadIn struct {
	File *multipart.FileHeader `form:"file"`
}

type uploadOut struct {
	Location string `json:"location"`
}

func (h *UploadHandler) MountAPI(e httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[uploadIn, uploadOut]{
		Method:  http.MethodPost,
		Path:    "/quill-upload",
		Binder:  httpez.BindMultipart,
		Auth:    true,
		Status:  http.StatusCreated,
		Handler: h.upload,
	})
}

func (h *UploadHandler) upload(c *gin.Context, in *uploadIn) (uploadOut, error) {
	if in.File == nil {
		return uploadOut{}, domain.Validation("file missing")
	}
	f, err := in.File.Open()
	if err != nil {
		return uploadOut{}, domain.Validation("invalid file")
	}
	defer f.Close()

	loc, err := h.media.Store(c.Request.Context(), f, in.File.Filename, media.EmbeddedImages)
	if err != nil {
		return uploadOut{}, err
	}
	return uploadOut{Location: loc}, nil
}
