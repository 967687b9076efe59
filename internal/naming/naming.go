// Package naming suggests names for extracted tiles, either from the name
// the extraction backend proposed or from a vision model.
package naming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tilemart/tileadmin/internal/gemini"
	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/models"
	"github.com/tilemart/tileadmin/internal/ollama"
	"github.com/tilemart/tileadmin/internal/openai"
	"github.com/tilemart/tileadmin/internal/providers"
)

const (
	ProviderServer = "server"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const prompt = `You are naming ceramic and porcelain tiles for a marketplace catalog.
The detected dominant color is %q.
Reply with a short product name of two to four words for the tile in the image.
Reply with the name only.`

// maxNameLength is counted in runes.
const maxNameLength = 80

// Options selects and configures a provider.
type Options struct {
	Provider     string
	Model        string
	GeminiAPIKey string
	OllamaURL    string
	OpenAIAPIKey string
}

// NewProvider returns the provider named in opts and its model. The server
// provider has no model and returns a nil Provider.
func NewProvider(opts Options) (providers.Provider, string, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderServer:
		return nil, "", nil
	case ProviderGemini:
		return gemini.New(opts.GeminiAPIKey), withDefault(opts.Model, "gemini-1.5-flash"), nil
	case ProviderOllama:
		return ollama.New(opts.OllamaURL), withDefault(opts.Model, "llava"), nil
	case ProviderOpenAI:
		return openai.New(opts.OpenAIAPIKey), withDefault(opts.Model, "gpt-4o-mini"), nil
	}
	return nil, "", fmt.Errorf("unknown naming provider %q", opts.Provider)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ImageSource downloads a staged tile image.
type ImageSource interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Suggestion is a proposed name for the draft at Index.
type Suggestion struct {
	Index int
	Name  string
}

// Suggester proposes names for extracted drafts. With a nil Provider it
// uses the names the extraction backend returned.
type Suggester struct {
	Provider  providers.Provider
	Model     string
	Images    ImageSource
	ImageBase string
}

// Suggest proposes names for the extracted drafts that have none, or for
// all extracted drafts when overwrite is set. Drafts that cannot be named are
// skipped and their errors joined into the returned error.
func (s *Suggester) Suggest(ctx context.Context, drafts []models.Draft, overwrite bool) ([]Suggestion, error) {
	var suggestions []Suggestion
	var errs []error

	for i, d := range drafts {
		draft, ok := d.(models.ExtractedDraft)
		if !ok || (!overwrite && strings.TrimSpace(draft.Name) != "") {
			continue
		}

		name, err := s.suggest(ctx, draft)
		if err != nil {
			slog.Warn("Unable to suggest a name", "index", i, "image", draft.TempImagePath, "err", err)
			errs = append(errs, fmt.Errorf("draft %d: %w", i, err))
			continue
		}
		if name == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{Index: i, Name: name})
	}
	return suggestions, errors.Join(errs...)
}

func (s *Suggester) suggest(ctx context.Context, d models.ExtractedDraft) (string, error) {
	if s.Provider == nil {
		return Clean(d.SuggestedName), nil
	}

	data, mime, err := s.Images.Fetch(ctx, images.ResolveURL(s.ImageBase, d.TempImagePath))
	if err != nil {
		return "", err
	}

	text, err := s.Provider.SuggestName(ctx, providers.Config{
		Model:       s.Model,
		Temperature: 0.2,
		Prompt:      fmt.Sprintf(prompt, d.DetectedColorName),
		Image:       data,
		ImageMIME:   mime,
	})
	if err != nil {
		return "", err
	}
	return Clean(text), nil
}

// Clean reduces a model reply to a single tidy name.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(line)
	}
	text = strings.TrimPrefix(text, "Name:")
	text = strings.Trim(text, " \t\"'`*.")
	if runes := []rune(text); len(runes) > maxNameLength {
		text = strings.TrimSpace(string(runes[:maxNameLength]))
	}
	return text
}
