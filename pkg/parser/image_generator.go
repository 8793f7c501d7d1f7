package parser

import (
	"encoding/base64"
	"fmt"
	"time"
)

// TrainImageGenerator creates base64-encoded SVG markers for train visualization
type TrainImageGenerator struct{}

func NewTrainImageGenerator() *TrainImageGenerator {
	return &TrainImageGenerator{}
}

// delayColor maps a delay to a traffic-light color for the marker badge.
func delayColor(delay time.Duration) string {
	switch {
	case delay <= 0:
		return "#2E8B57" // Sea Green: on time or early
	case delay < 10*time.Minute:
		return "#F39C12" // Orange: minor delay
	default:
		return "#DC3545" // Red: major delay
	}
}

// GenerateTrainImage creates a base64-encoded SVG image of a train with its
// identifier and a delay badge, for embedding in Grafana dashboards.
func (g *TrainImageGenerator) GenerateTrainImage(trainIdentifier string, delay time.Duration) string {
	color := delayColor(delay)

	badge := "on time"
	if minutes := int(delay.Minutes()); minutes != 0 {
		badge = fmt.Sprintf("%+d min", minutes)
	}

	svg := fmt.Sprintf(`<svg width="140" height="60" xmlns="http://www.w3.org/2000/svg">
  <!-- Background -->
  <rect width="140" height="60" fill="#f8f9fa" stroke="#dee2e6" stroke-width="1" rx="8"/>

  <!-- Train Body -->
  <rect x="12" y="18" width="56" height="24" fill="%s" rx="6"/>

  <!-- Train Nose -->
  <path d="M 68 18 Q 80 18 80 30 Q 80 42 68 42 Z" fill="%s"/>

  <!-- Windows -->
  <rect x="16" y="22" width="9" height="7" fill="#87CEEB" rx="1"/>
  <rect x="27" y="22" width="9" height="7" fill="#87CEEB" rx="1"/>
  <rect x="38" y="22" width="9" height="7" fill="#87CEEB" rx="1"/>
  <rect x="49" y="22" width="9" height="7" fill="#87CEEB" rx="1"/>

  <!-- Wheels -->
  <circle cx="24" cy="45" r="4" fill="#2F4F4F"/>
  <circle cx="44" cy="45" r="4" fill="#2F4F4F"/>
  <circle cx="64" cy="45" r="4" fill="#2F4F4F"/>

  <!-- Train Identifier -->
  <text x="86" y="26" font-family="Arial, sans-serif" font-size="12" font-weight="bold" fill="#333">%s</text>

  <!-- Delay Badge -->
  <text x="86" y="44" font-family="Arial, sans-serif" font-size="11" font-weight="bold" fill="%s">%s</text>
</svg>`, color, color, trainIdentifier, color, badge)

	encoded := base64.StdEncoding.EncodeToString([]byte(svg))
	return fmt.Sprintf("data:image/svg+xml;base64,%s", encoded)
}

// GenerateStatusBadge creates a compact badge with the train identifier and
// delay state, for dense displays.
func (g *TrainImageGenerator) GenerateStatusBadge(trainIdentifier string, delay time.Duration) string {
	color := delayColor(delay)

	label := trainIdentifier
	if minutes := int(delay.Minutes()); minutes != 0 {
		label = fmt.Sprintf("%s %+d", trainIdentifier, minutes)
	}

	svg := fmt.Sprintf(`<svg width="110" height="24" xmlns="http://www.w3.org/2000/svg">
  <!-- Badge Background -->
  <rect width="110" height="24" fill="%s" rx="12"/>

  <!-- Text Content -->
  <text x="55" y="16" font-family="Arial, sans-serif" font-size="11" font-weight="bold"
        fill="white" text-anchor="middle">%s</text>
</svg>`, color, label)

	encoded := base64.StdEncoding.EncodeToString([]byte(svg))
	return fmt.Sprintf("data:image/svg+xml;base64,%s", encoded)
}
