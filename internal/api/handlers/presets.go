package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tazeemc/Entropy/internal/api/models"
	"github.com/tazeemc/Entropy/internal/config"

	"github.com/gin-gonic/gin"
)

// PresetHandler lists model presets from a directory of YAML files
type PresetHandler struct {
	presetDir string
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(presetDir string) *PresetHandler {
	log.Printf("[API] Using preset directory: %s", presetDir)
	return &PresetHandler{presetDir: presetDir}
}

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	presets := []models.PresetInfo{}

	entries, err := os.ReadDir(h.presetDir)
	if err != nil {
		log.Printf("[API] Failed to read preset directory %s: %v", h.presetDir, err)
		c.JSON(http.StatusOK, gin.H{"presets": presets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(h.presetDir, entry.Name())
		m, err := config.LoadModelFile(path)
		if err != nil {
			log.Printf("[API] Skipping preset %s: %v", path, err)
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".yaml")
		name := m.Name
		if name == "" {
			name = id
		}
		presets = append(presets, models.PresetInfo{
			ID:    id,
			Name:  name,
			File:  path,
			Model: fromModelConfig(config.MergeModel(config.Defaults(), m)),
		})
	}

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}
