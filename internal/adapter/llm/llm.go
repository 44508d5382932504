package llm

import (
	"fmt"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/model"
)

// New returns the completer for cfg.Provider.
func New(cfg config.Model) (model.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown model provider %q", domain.ErrValidation, cfg.Provider)
	}
}
