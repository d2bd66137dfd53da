package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/quiz-service/internal/config"
)

func TestGormConfig(t *testing.T) {
	cfg := gormConfig(&config.Config{Environment: "development"})

	assert.True(t, cfg.TranslateError)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}
