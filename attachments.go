package gitpress

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/store"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes an image from src, resizes it to maxImageWidth if
// wider, and encodes it as JPEG. Returns the slugged filename and bytes.
func processImage(src io.Reader, originalName string) (string, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return slugifyFilename(originalName) + ".jpg", buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := path.Ext(name)
	return Slugify(strings.TrimSuffix(name, ext))
}

// handleAttachmentUpload accepts a file for a binary field and queues it on
// the item's draft. Nothing touches the repository here; the upload travels
// with the next publish so the file and the page referencing it land in the
// same commit.
func (a *App) handleAttachmentUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	fieldName := c.Param("field")
	field, ok := typeData.Field(fieldName)
	if !ok || !field.Binary() {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("field %q does not accept uploads", fieldName))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.String(http.StatusBadRequest, "No file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	var filename string
	var data []byte
	if field.Type == content.FieldImage {
		filename, data, err = processImage(src, file.Filename)
		if err != nil {
			return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
		}
	} else {
		data, err = io.ReadAll(src)
		if err != nil {
			return err
		}
		ext := path.Ext(file.Filename)
		filename = slugifyFilename(file.Filename) + ext
	}

	item, isNew, err := a.loadItemForEdit(c.Request().Context(), typeData, c.Param("id"))
	if err != nil {
		return err
	}
	if isNew && item.ID == "" {
		return c.String(http.StatusBadRequest, "Save the item id before uploading files")
	}

	item.Fields[fieldName] = store.NormalizePath(item.URL(typeData) + "/" + filename)
	item.Attachments[fieldName] = base64.StdEncoding.EncodeToString(data)

	if err := a.Drafts.Save(item); err != nil {
		if err == ErrDraftPublishing {
			return c.String(http.StatusConflict, "A publish for this item is in progress.")
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, itemFormURL(typeData.Name, item.ID, opEdit))
}
