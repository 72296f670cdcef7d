package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/archive"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/sirupsen/logrus"
)

const archiveUploadTimeout = 30 * time.Second

// Packager turns successful outcomes into ZIP archives and, when a store is
// configured, keeps a copy in the background.
type Packager struct {
	store  ArchiveStore
	logger *logrus.Logger
	wg     sync.WaitGroup
}

// NewPackager creates a packager. store may be nil.
func NewPackager(store ArchiveStore, logger *logrus.Logger) *Packager {
	return &Packager{store: store, logger: logger}
}

// Package builds the archive of a successful outcome.
func (p *Packager) Package(ctx context.Context, out consultation.Outcome) (archive.Bundle, []byte, error) {
	if out.Variant != consultation.VariantSuccess {
		return archive.Bundle{}, nil, fmt.Errorf("cannot package a %s outcome", out.Variant)
	}

	bundle := archive.Bundle{
		Name:     out.CompanyName,
		Card:     out.Card,
		Roster:   out.Roster,
		Modified: time.Now(),
	}
	data, err := archive.Build(bundle)
	if err != nil {
		return archive.Bundle{}, nil, err
	}

	if p.store != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.upload(context.WithoutCancel(ctx), out.CNPJ, data)
		}()
	}
	return bundle, data, nil
}

func (p *Packager) upload(ctx context.Context, cnpj string, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, archiveUploadTimeout)
	defer cancel()

	if _, err := p.store.Store(ctx, cnpj, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"cnpj":  cnpj,
			"error": err.Error(),
		}).Warn("Archive upload failed")
	}
}

// Wait blocks until background uploads finish.
func (p *Packager) Wait() {
	p.wg.Wait()
}
