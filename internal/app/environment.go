package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Generate builds the environment for one mode and renders it. With an
// Output path the rendering is also written to that file.
func (s Service) Generate(ctx context.Context, req EnvironmentRequest) (EnvironmentResult, error) {
	mode, err := parseMode(req.Mode)
	if err != nil {
		return EnvironmentResult{}, err
	}
	env, err := s.generator(req.ConfigRequest).Generate(ctx, mode)
	if err != nil {
		return EnvironmentResult{}, err
	}
	rendered, err := s.EnvWriter.Render(env, req.Format)
	if err != nil {
		return EnvironmentResult{}, err
	}
	result := EnvironmentResult{Environment: env, Rendered: rendered}
	if output := strings.TrimSpace(req.Output); output != "" {
		if err := s.EnvWriter.Write(output, env, req.Format); err != nil {
			return EnvironmentResult{}, err
		}
		result.Output = output
		log.Ctx(ctx).Info().
			Str("component", "generator").
			Str("output", output).
			Str("mode", string(mode)).
			Msg("environment written")
	}
	return result, nil
}
