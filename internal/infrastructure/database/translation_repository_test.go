package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/service/translation"
)

var (
	_ translation.Recorder        = (*TranslationRepository)(nil)
	_ translation.ResolutionStore = (*TranslationRepository)(nil)
)

func TestStoreTranslationSkipsEmptyResults(t *testing.T) {
	repo := NewTranslationRepository(nil)

	assert.NoError(t, repo.StoreTranslation(context.Background(), nil))

	empty := compliance.NewTranslatedEvent(uuid.New())
	assert.NoError(t, repo.StoreTranslation(context.Background(), empty))
}
