package handlers

import (
	"net/http"

	"github.com/tazeemc/Entropy/internal/api/models"
	"github.com/tazeemc/Entropy/internal/config"

	"github.com/gin-gonic/gin"
)

// ModelHandler describes the sizing model and its parameters
type ModelHandler struct{}

// NewModelHandler creates a new model handler
func NewModelHandler() *ModelHandler {
	return &ModelHandler{}
}

// DescribeModel handles GET /api/v1/model
func (h *ModelHandler) DescribeModel(c *gin.Context) {
	d := config.Defaults()
	info := models.ModelInfo{
		Name: "thermo",
		Description: "Thermodynamic position sizing. Size shrinks with the square of rolling volatility " +
			"(temperature), with the entropy of the return distribution, and with open exposure (heat), " +
			"and is capped at a fraction of equity.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "sizer",
				Type:        "string",
				Description: "thermo for the thermodynamic model, fixed to hold max_position_fraction of equity as a baseline",
				Default:     d.Sizer,
			},
			{
				Name:        "base_temperature",
				Type:        "float",
				Description: "Reference annualized volatility at which the temperature ratio is 1",
				Default:     d.BaseTemperature,
			},
			{
				Name:        "max_heat",
				Type:        "float",
				Description: "Aggregate exposure at which sizing goes to zero",
				Default:     d.MaxHeat,
			},
			{
				Name:        "volatility_window",
				Type:        "int",
				Description: "Trailing window (returns) for the temperature estimate",
				Default:     d.VolatilityWindow,
			},
			{
				Name:        "entropy_bins",
				Type:        "int",
				Description: "Number of equal-width histogram bins for the entropy estimate",
				Default:     d.EntropyBins,
			},
			{
				Name:        "entropy_window",
				Type:        "int",
				Description: "Trailing window for a rolling entropy; 0 computes one entropy over the whole sample",
				Default:     d.EntropyWindow,
			},
			{
				Name:        "initial_equity",
				Type:        "float",
				Description: "Starting equity in currency units",
				Default:     d.InitialEquity,
			},
			{
				Name:        "max_position_fraction",
				Type:        "float",
				Description: "Hard cap on position size as a fraction of equity",
				Default:     d.MaxPositionFraction,
			},
			{
				Name:        "base_position_fraction",
				Type:        "float",
				Description: "Position size as a fraction of equity before the temperature, entropy and heat factors",
				Default:     d.BasePositionFraction,
			},
			{
				Name:        "track_heat",
				Type:        "bool",
				Description: "Count the previous step's position as heat; off keeps heat at 0",
				Default:     d.TrackHeat,
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"model": info})
}
