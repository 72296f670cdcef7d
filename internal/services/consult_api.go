package services

import (
	"context"
	"errors"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/nexconsult/cnpj-docs/internal/receitaws"
	"github.com/nexconsult/cnpj-docs/internal/render"
	"github.com/nexconsult/cnpj-docs/internal/utils"
	"github.com/sirupsen/logrus"
)

// APINamePlaceholder names archives when the registry has no company name.
const APINamePlaceholder = "Empresa_Desconhecida"

// APIConsultService composes documents from the receitaws public API.
type APIConsultService struct {
	client   *receitaws.Client
	cache    CacheServiceInterface
	renderer *render.Renderer
	stats    *Stats
	logger   *logrus.Logger
}

// NewAPIConsultService creates the API backend. cache may be nil.
func NewAPIConsultService(client *receitaws.Client, cache CacheServiceInterface, renderer *render.Renderer, stats *Stats, logger *logrus.Logger) *APIConsultService {
	return &APIConsultService{client: client, cache: cache, renderer: renderer, stats: stats, logger: logger}
}

// Consult looks the CNPJ up and renders the card and roster.
func (s *APIConsultService) Consult(ctx context.Context, raw string) consultation.Outcome {
	start := time.Now()
	out := s.consult(ctx, raw)
	out.Duration = time.Since(start)
	s.stats.Record(out)

	entry := s.logger.WithFields(logrus.Fields{
		"cnpj":     out.CNPJ,
		"backend":  s.Backend(),
		"outcome":  out.Variant.String(),
		"duration": out.Duration,
	})
	if out.Err != nil {
		entry.WithFields(logrus.Fields{
			"stage": out.Err.Stage,
			"kind":  out.Err.Kind.String(),
		}).Warn("Consultation failed")
	} else {
		entry.Info("Consultation finished")
	}
	return out
}

func (s *APIConsultService) consult(ctx context.Context, raw string) consultation.Outcome {
	req, err := consultation.NewRequest(raw)
	if err != nil {
		var cerr *consultation.Error
		errors.As(err, &cerr)
		return consultation.Rejected(utils.CleanCNPJ(raw), cerr)
	}
	cnpj := req.CNPJ()

	company, err := s.lookup(ctx, cnpj)
	if err != nil {
		return consultation.Failed(cnpj, err)
	}

	card, roster, rerr := s.renderer.Documents(company)
	if rerr != nil {
		return consultation.Failed(cnpj, consultation.NewError(consultation.KindUnexpected, consultation.StageRender, rerr))
	}

	name := utils.SanitizeName(company.Nome, APINamePlaceholder, consultation.MaxNameLength)
	return consultation.Succeeded(cnpj, name, card, roster)
}

// lookup serves from cache when possible. Only successful payloads are cached.
func (s *APIConsultService) lookup(ctx context.Context, cnpj string) (*receitaws.Company, *consultation.Error) {
	key := CacheKey(cnpj)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			if company, err := receitaws.Decode([]byte(cached)); err == nil {
				return company, nil
			}
			_ = s.cache.Delete(ctx, key)
		}
	}

	company, raw, err := s.client.Lookup(ctx, cnpj)
	if err != nil {
		return nil, lookupError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, string(raw)); err != nil {
			s.logger.WithError(err).WithField("cnpj", cnpj).Warn("Failed to cache registry payload")
		}
	}
	return company, nil
}

func lookupError(err error) *consultation.Error {
	var remote *receitaws.RemoteError
	switch {
	case errors.As(err, &remote):
		return consultation.NewError(consultation.KindUpstream, consultation.StageLookup, err)
	case errors.Is(err, receitaws.ErrRateLimited):
		return consultation.NewError(consultation.KindBusy, consultation.StageLookup, err)
	case errors.Is(err, receitaws.ErrNotFound):
		return consultation.NewError(consultation.KindNotFound, consultation.StageLookup, err)
	default:
		return consultation.NewError(consultation.KindUpstream, consultation.StageLookup, err)
	}
}

// Backend names the acquisition backend.
func (s *APIConsultService) Backend() string { return "api" }

// Health returns service health status
func (s *APIConsultService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":        "healthy",
		"backend":       s.Backend(),
		"cache_enabled": s.cache != nil,
	}
}
