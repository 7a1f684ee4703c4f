package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"firmware-sources/internal/core"
	"firmware-sources/internal/types"
)

func (s Service) Lookup(ctx context.Context, req LookupRequest) (LookupResult, error) {
	if strings.TrimSpace(req.Section) == "" || strings.TrimSpace(req.Key) == "" {
		return LookupResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("section and key are required")
	}
	value, found, err := s.parser(req.ConfigRequest).Get(ctx, req.Section, req.Key)
	if err != nil {
		return LookupResult{}, err
	}
	return LookupResult{Value: value, Found: found}, nil
}

func (s Service) ListKeys(ctx context.Context, req ListKeysRequest) ([]string, error) {
	if strings.TrimSpace(req.Section) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("section is required")
	}
	return s.parser(req.ConfigRequest).ListKeys(req.Section)
}

func (s Service) Integrity(ctx context.Context, req ConfigRequest) (IntegrityResult, error) {
	found, err := s.parser(req).Integrity(ctx)
	if err != nil {
		return IntegrityResult{}, err
	}
	return IntegrityResult{Duplicates: found}, nil
}

func (s Service) ResolveRepository(ctx context.Context, req RepositoryRequest) (types.RepositoryEntry, error) {
	if strings.TrimSpace(req.Name) == "" {
		return types.RepositoryEntry{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repository name is required")
	}
	return core.NewSourceResolver(s.parser(req.ConfigRequest)).ResolveRepository(ctx, req.Name)
}

func (s Service) ResolveSource(ctx context.Context, req SourceRequest) (types.SourceSpec, error) {
	if strings.TrimSpace(req.Package) == "" {
		return types.SourceSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return types.SourceSpec{}, err
	}
	return core.NewSourceResolver(s.parser(req.ConfigRequest)).ResolveSource(ctx, req.Package, mode)
}

func parseMode(value string) (types.Mode, error) {
	mode, ok := types.ParseMode(strings.ToLower(strings.TrimSpace(value)))
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown mode %q (want default or local)", value))
	}
	return mode, nil
}
