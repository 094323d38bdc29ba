package state

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"riskcore/internal/models"
)

// Совместимая со стандартной библиотекой конфигурация json-iterator
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store - контракт хранилища снапшотов состояния.
//
// Load возвращает (nil, nil) если снапшот еще не сохранялся -
// отсутствие состояния не является ошибкой.
type Store interface {
	Save(ctx context.Context, doc *models.SnapshotDocument) error
	Load(ctx context.Context) (*models.SnapshotDocument, error)
}

// Encode сериализует документ снапшота в JSON
func Encode(doc *models.SnapshotDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("snapshot document is nil")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode разбирает JSON в документ снапшота с проверкой версии
func Decode(data []byte) (*models.SnapshotDocument, error) {
	var doc models.SnapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Version > models.SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	return &doc, nil
}
