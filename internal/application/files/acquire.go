package files

import (
	"fmt"
	"io"
	"mime/multipart"

	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

// DefaultMaxUploadBytes caps a single upload when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20 // 10 MiB

// Acquirer normalizes the two selection surfaces (picker and drag-drop)
// into a SelectedFile. Anything it rejects is ignored upstream without a
// state change, so the sentinel errors here never reach the user.
type Acquirer struct {
	MaxBytes int64
}

func NewAcquirer(maxBytes int64) *Acquirer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Acquirer{MaxBytes: maxBytes}
}

// FromPicker accepts the single file chosen via the file input.
func (a *Acquirer) FromPicker(fh *multipart.FileHeader) (*domain.SelectedFile, error) {
	if fh == nil {
		return nil, domain.ErrNoFile
	}
	return a.read(fh)
}

// FromDrop accepts a dropped payload. Only the first file is considered;
// the rest are discarded even if a later one is an image.
func (a *Acquirer) FromDrop(fhs []*multipart.FileHeader) (*domain.SelectedFile, error) {
	if len(fhs) == 0 {
		return nil, domain.ErrNoFile
	}
	return a.read(fhs[0])
}

func (a *Acquirer) read(fh *multipart.FileHeader) (*domain.SelectedFile, error) {
	// tipe MIME pakai yang dideklarasikan browser, tanpa sniffing
	contentType := fh.Header.Get("Content-Type")
	file := &domain.SelectedFile{
		Name:        fh.Filename,
		ContentType: contentType,
	}
	if !file.IsImage() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, contentType)
	}
	if fh.Size > a.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, a.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > a.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, len(data))
	}

	file.Data = data
	return file, nil
}
