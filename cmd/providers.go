package cmd

import (
	"fmt"

	"github.com/scribeworks/scribe/internal/config"
	"github.com/scribeworks/scribe/internal/model"

	// Register available providers.
	_ "github.com/scribeworks/scribe/internal/model/anthropic"
	_ "github.com/scribeworks/scribe/internal/model/openai"
)

// Role temperatures applied when a role has no explicit config: reviewers
// sample low, the critic a bit higher, the arbiter deterministically.
var roleTemperatures = map[string]float64{
	config.RoleReviewer: 0.2,
	config.RoleCritic:   0.4,
	config.RoleArbiter:  0,
	config.RoleVerifier: 0,
}

// toolRoles drive the tool-calling write loop and need a provider that
// supports it.
var toolRoles = map[string]bool{
	config.RoleWriter: true,
}

// clientFor builds the model client and call options for one agent role.
func clientFor(cfg *config.Config, role string) (model.Client, model.Options, error) {
	settings := cfg.ForRole(role)
	client, err := model.New(settings.Provider, model.Settings{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
	})
	if err != nil {
		return nil, model.Options{}, fmt.Errorf("provider for %s: %w", role, err)
	}
	if toolRoles[role] && !model.SupportsTools(client) {
		return nil, model.Options{}, fmt.Errorf(
			"provider %s cannot serve the %s role: tool calling unsupported", settings.Provider, role)
	}

	opts := model.Options{
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}
	if _, configured := cfg.Roles[role]; !configured {
		if t, ok := roleTemperatures[role]; ok {
			opts.Temperature = t
		}
	}
	return client, opts, nil
}
