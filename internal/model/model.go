package model

import (
	"github.com/LeonardoBeccarini/olivecanopy/internal/model/entities"
	"github.com/LeonardoBeccarini/olivecanopy/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	Orchard               = entities.Orchard
	WeatherDay            = messages.WeatherDay
	CanopyEstimateEvent   = messages.CanopyEstimateEvent
	EstimateRejectedEvent = messages.EstimateRejectedEvent
)
