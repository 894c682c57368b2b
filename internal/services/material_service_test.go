package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestMaterialServiceWithoutStorage(t *testing.T) {
	service := NewMaterialService(nil, nil, nil, nil)
	ctx := context.Background()

	_, err := service.Upload(ctx, "default", uuid.New(), uuid.New(), "Worksheet", nil, nil, "sheet.pdf")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable from Upload, got %v", err)
	}

	if err := service.Delete(ctx, "default", uuid.New(), uuid.New()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable from Delete, got %v", err)
	}
}
