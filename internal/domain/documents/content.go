package documents

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"dayflow/internal/domain/auth"
	"dayflow/internal/platform/validate"
)

// decodeContent turns the upload payload into bytes and sniffs the real
// content type from them; the client's claim is never trusted.
func decodeContent(data string) ([]byte, string, error) {
	if i := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && i > 0 {
		data = data[i+len(";base64,"):]
	}
	data = strings.TrimSpace(data)
	if base64.StdEncoding.DecodedLen(len(data)) > MaxFileSize+3 {
		return nil, "", validate.Field("data", fmt.Sprintf("must be at most %d bytes", MaxFileSize))
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", validate.Field("data", "must be base64 encoded")
	}
	if len(raw) == 0 {
		return nil, "", validate.Field("data", "is required")
	}
	if len(raw) > MaxFileSize {
		return nil, "", validate.Field("data", fmt.Sprintf("must be at most %d bytes", MaxFileSize))
	}
	contentType := mimetype.Detect(raw).String()
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !slices.Contains(AllowedContentTypes, contentType) {
		return nil, "", validate.Field("data", "must be a PDF, JPEG or PNG file")
	}
	return raw, contentType, nil
}

func isProtected(doc Document) bool {
	if doc.UploadedByRole != auth.RoleAdmin {
		return false
	}
	title := strings.ToLower(doc.Title)
	for _, keyword := range protectedKeywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}
