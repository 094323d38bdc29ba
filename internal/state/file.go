package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"riskcore/internal/models"
	"riskcore/pkg/crypto"
	"riskcore/pkg/utils"
)

// FileStore хранит снапшот в одном JSON файле.
//
// Запись атомарна: данные пишутся во временный файл рядом с целевым
// и заменяют его через rename. При заданном ключе содержимое
// шифруется AES-256-GCM.
type FileStore struct {
	path string
	key  []byte // nil - без шифрования
	log  *utils.Logger
}

// NewFileStore создает файловое хранилище снапшотов.
// key - 32 байта для AES-256-GCM или nil для записи открытым текстом.
func NewFileStore(path string, key []byte, log *utils.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot file path is required")
	}
	if key != nil {
		if err := crypto.ValidateKey(key); err != nil {
			return nil, fmt.Errorf("invalid snapshot encryption key: %w", err)
		}
	}
	if log == nil {
		log = utils.GetGlobalLogger()
	}
	return &FileStore{
		path: path,
		key:  key,
		log:  log.WithComponent("state_file"),
	}, nil
}

// Save записывает документ снапшота атомарно (tmp + rename)
func (s *FileStore) Save(ctx context.Context, doc *models.SnapshotDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(doc)
	if err != nil {
		return err
	}

	if s.key != nil {
		encrypted, err := crypto.Encrypt(string(data), s.key)
		if err != nil {
			return fmt.Errorf("failed to encrypt snapshot: %w", err)
		}
		data = []byte(encrypted)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	s.log.Debug("snapshot saved",
		utils.String("path", s.path),
		utils.Int("bytes", len(data)),
		utils.Bool("encrypted", s.key != nil))
	return nil
}

// Load читает документ снапшота.
// Отсутствующий файл - не ошибка: возвращается (nil, nil) с предупреждением.
func (s *FileStore) Load(ctx context.Context) (*models.SnapshotDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("snapshot file not found, starting fresh",
				utils.String("path", s.path))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	if s.key != nil {
		decrypted, err := crypto.Decrypt(string(data), s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt snapshot: %w", err)
		}
		data = []byte(decrypted)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	s.log.Info("snapshot loaded",
		utils.String("path", s.path),
		utils.Int("version", doc.Version))
	return doc, nil
}
