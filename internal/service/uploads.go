package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Attachment limits applied at ticket creation.
const (
	MaxAttachments     = 5
	MaxAttachmentBytes = 2 * 1024 * 1024
)

const (
	msgTooManyAttachments = "You can upload maximum 5 files."
	msgAttachmentType     = "Attachments must be: jpeg, png, jpg, gif, pdf, doc, docx."
	msgAttachmentSize     = "Each file must not exceed 2MB."
	msgAttachmentFile     = "Each attachment must be a file."
)

// allowedExtensions maps each accepted filename extension to the content
// types it may carry. Word containers are also accepted when detection
// stops at the generic zip or OLE parent.
var allowedExtensions = map[string][]string{
	".jpeg": {"image/jpeg"},
	".jpg":  {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// Upload is one file submitted with a new ticket.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type checkedUpload struct {
	Upload
	Ext      string
	MimeType string
}

// checkUploads validates every upload before anything is stored. Error
// details are keyed "attachments" or "attachments.<index>".
func checkUploads(uploads []Upload) ([]checkedUpload, error) {
	if len(uploads) > MaxAttachments {
		return nil, apperrors.NewFieldError("attachments", msgTooManyAttachments)
	}

	details := map[string]any{}
	checked := make([]checkedUpload, 0, len(uploads))
	for i, up := range uploads {
		key := fmt.Sprintf("attachments.%d", i)
		if up.Open == nil || up.Filename == "" {
			details[key] = msgAttachmentFile
			continue
		}
		if up.Size > MaxAttachmentBytes {
			details[key] = msgAttachmentSize
			continue
		}
		ext := strings.ToLower(filepath.Ext(up.Filename))
		allowed, ok := allowedExtensions[ext]
		if !ok {
			details[key] = msgAttachmentType
			continue
		}
		mime, err := detect(up)
		if err != nil {
			return nil, err
		}
		if !mimeAllowed(mime, allowed) {
			details[key] = msgAttachmentType
			continue
		}
		checked = append(checked, checkedUpload{Upload: up, Ext: ext, MimeType: mime.String()})
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}
	return checked, nil
}

func detect(up Upload) (*mimetype.MIME, error) {
	rc, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", up.Filename, err)
	}
	defer rc.Close()
	mime, err := mimetype.DetectReader(rc)
	if err != nil {
		return nil, fmt.Errorf("detect upload %s: %w", up.Filename, err)
	}
	return mime, nil
}

func mimeAllowed(mime *mimetype.MIME, allowed []string) bool {
	for m := mime; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}
