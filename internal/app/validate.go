package app

import (
	"context"

	"firmware-sources/internal/core"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// Validate runs every check and returns the report. When any check fails
// the report is returned together with a validation error.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (types.ValidationReport, error) {
	mode, err := parseMode(req.Mode)
	if err != nil {
		return types.ValidationReport{}, err
	}
	parser := s.parser(req.ConfigRequest)
	validator := core.NewValidator(parser, s.generator(req.ConfigRequest), s.VCS, s.Feeds, s.PathExists)
	report, err := validator.Validate(ctx, mode, req.TargetDir)
	if err != nil {
		return types.ValidationReport{}, err
	}
	if !report.Passed() {
		return report, shared.ErrValidationMismatch(report.FailedCount(), len(report.Checks))
	}
	return report, nil
}
