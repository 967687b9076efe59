package providers

import (
	"context"
)

// Config represents one naming request to an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is the tile image the name is suggested for.
	Image     []byte
	ImageMIME string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	SuggestName(ctx context.Context, config Config) (string, error)
}
