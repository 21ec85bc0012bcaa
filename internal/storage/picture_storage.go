package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// MediaURLPrefix: путь, по которому раздаются сохранённые файлы.
const MediaURLPrefix = "/media/"

// sniffLen: сколько байт читать для определения типа файла.
const sniffLen = 262

var (
	// ErrNotImage возвращается, если содержимое файла не является поддерживаемым изображением.
	ErrNotImage = errors.New("storage: файл не является изображением")
	// ErrTooLarge возвращается, если файл больше лимита загрузки.
	ErrTooLarge = errors.New("storage: размер файла превышает лимит")
	// ErrExtensionMismatch возвращается, если расширение не совпадает с реальным типом.
	ErrExtensionMismatch = errors.New("storage: расширение файла не соответствует содержимому")
)

// Разрешённые типы изображений по результату filetype.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PictureStorage хранит фотографии исполнителей на диске.
type PictureStorage struct {
	rootPath       string
	maxUploadBytes int64
	now            func() time.Time
}

// NewPictureStorage создаёт файловое хранилище.
func NewPictureStorage(rootPath string, maxUploadMB int64) (*PictureStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &PictureStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
		now:            time.Now,
	}, nil
}

// Root возвращает корневой каталог хранилища.
func (s *PictureStorage) Root() string {
	return s.rootPath
}

// MaxUploadBytes возвращает лимит размера одного файла.
func (s *PictureStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// DetectImage проверяет магические байты и возвращает MIME тип изображения.
// Расширение originalName должно соответствовать содержимому. r перематывается в начало.
func DetectImage(r io.ReadSeeker, originalName string) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("storage: не удалось сбросить позицию файла: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", ErrNotImage
	}

	mime := kind.MIME.Value
	expected, ok := allowedImageTypes[mime]
	if !ok {
		return "", ErrNotImage
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext != "" && ext != expected {
		return "", ErrExtensionMismatch
	}

	return mime, nil
}

// Save сохраняет изображение и возвращает путь относительно корня со слешами.
func (s *PictureStorage) Save(ctx context.Context, userID uuid.UUID, mime string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext, ok := allowedImageTypes[mime]
	if !ok {
		return "", ErrNotImage
	}

	fileName := fmt.Sprintf("%d%s", s.now().UnixNano(), ext)
	userDir := filepath.Join(s.rootPath, "pictures", userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", ErrTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return path.Join("pictures", userID.String(), fileName), nil
}

// Delete удаляет файл из хранилища. Отсутствующий файл не ошибка.
func (s *PictureStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// URL возвращает публичный адрес сохранённого файла.
func URL(relativePath string) string {
	if relativePath == "" {
		return ""
	}
	return MediaURLPrefix + strings.TrimPrefix(relativePath, "/")
}

// resolve не даёт выйти за пределы корня хранилища.
func (s *PictureStorage) resolve(relativePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash("/" + relativePath))
	target := filepath.Join(s.rootPath, clean)
	if !strings.HasPrefix(target, filepath.Clean(s.rootPath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: недопустимый путь %q", relativePath)
	}
	return target, nil
}
