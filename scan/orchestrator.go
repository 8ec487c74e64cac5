// Package scan sequences the full pipeline for one card photo: resolve
// the photo to a cert number, the cert number to a card identity, scrape
// recent sales for that card, compute price statistics, and persist the
// run. Each stage's failure short-circuits the rest and is reported with
// stage attribution; state persisted by earlier stages is not rolled back.
package scan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/J3698/tcg/cache"
	"github.com/J3698/tcg/models"
	"github.com/J3698/tcg/scrape"
)

// ImageResolver turns a stored image reference into a fetchable URL.
type ImageResolver interface {
	Resolve(ctx context.Context, imagePath string) (string, error)
}

// CertReader extracts a certification number from a card photo.
// Satisfied by *vision.Client.
type CertReader interface {
	ExtractCertNumber(ctx context.Context, photoURL string) (string, error)
}

// CertRegistry resolves a certification number to a card identity.
// Satisfied by *psa.Client.
type CertRegistry interface {
	Lookup(ctx context.Context, certNumber string) (models.CertRecord, error)
}

// Runner drives a pagination run. Satisfied by *scrape.Controller.
type Runner interface {
	Run(ctx context.Context, opts scrape.RunOptions) *models.ScrapeRun
}

// RunStore persists scrape runs. Satisfied by *store.Store.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.ScrapeRun) error
	SaveRunError(ctx context.Context, id, term, errMsg string) error
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	images   ImageResolver
	reader   CertReader
	registry CertRegistry
	runner   Runner
	store    RunStore
	certs    *cache.Cache // optional; nil disables cert caching
}

// NewOrchestrator creates a scan orchestrator. certs may be nil.
func NewOrchestrator(images ImageResolver, reader CertReader, registry CertRegistry,
	runner Runner, store RunStore, certs *cache.Cache) *Orchestrator {
	return &Orchestrator{
		images:   images,
		reader:   reader,
		registry: registry,
		runner:   runner,
		store:    store,
		certs:    certs,
	}
}

// Scan runs the full pipeline for one stored card photo.
func (o *Orchestrator) Scan(ctx context.Context, imagePath string) (*models.ScanResult, error) {
	photoURL, err := o.images.Resolve(ctx, imagePath)
	if err != nil {
		return nil, stageError(err, models.ErrCodeImageAccess, models.StageImage, "failed to resolve card image")
	}

	certNumber, err := o.reader.ExtractCertNumber(ctx, photoURL)
	if err != nil {
		return nil, stageError(err, models.ErrCodeVision, models.StageVision, "failed to extract cert number")
	}
	slog.Info("cert number extracted", "cert", certNumber)

	cert, err := o.resolveCert(ctx, certNumber)
	if err != nil {
		return nil, err
	}
	slog.Info("cert resolved",
		"cert", cert.CertNumber, "subject", cert.Subject,
		"grade", cert.GradeNumeric, "year", cert.Year,
	)

	run, err := o.RunAndSave(ctx, scrape.RunOptions{
		Term:    cert.Subject,
		Grade:   cert.GradeNumeric,
		Retries: -1,
	})
	if err != nil {
		return nil, err
	}

	return &models.ScanResult{
		ImagePath:  imagePath,
		Cert:       cert,
		Run:        run,
		Statistics: scrape.Stats(run.Listings),
	}, nil
}

// RunAndSave performs one pagination run and persists it. An error-stop
// run fails the operation; a best-effort error row is written so failed
// runs show up in the datastore.
func (o *Orchestrator) RunAndSave(ctx context.Context, opts scrape.RunOptions) (*models.ScrapeRun, error) {
	run := o.runner.Run(ctx, opts)

	if run.StopReason == models.StopError {
		scrapeErr := models.NewScanError(models.ErrCodeScrape, models.StageScrape,
			"page fetch failed during pagination run for "+opts.Term, nil)
		if err := o.store.SaveRunError(ctx, run.ID, run.Term, scrapeErr.Message); err != nil {
			slog.Error("failed to record scrape error", "term", run.Term, "error", err)
		}
		return nil, scrapeErr
	}

	if err := o.store.SaveRun(ctx, run); err != nil {
		storageErr := models.NewScanError(models.ErrCodeStorage, models.StageStorage,
			"failed to persist scrape run", err)
		if dbErr := o.store.SaveRunError(ctx, run.ID, run.Term, storageErr.Message); dbErr != nil {
			slog.Error("failed to record storage error", "term", run.Term, "error", dbErr)
		}
		return nil, storageErr
	}

	return run, nil
}

// resolveCert looks up the cert record, consulting the cache first.
func (o *Orchestrator) resolveCert(ctx context.Context, certNumber string) (models.CertRecord, error) {
	if o.certs != nil {
		if cert, ok := o.certs.Get(certNumber); ok {
			return cert, nil
		}
	}

	cert, err := o.registry.Lookup(ctx, certNumber)
	if err != nil {
		return models.CertRecord{}, stageError(err, models.ErrCodeCertLookup, models.StageRegistry,
			"failed to resolve cert "+certNumber)
	}

	if o.certs != nil {
		o.certs.Set(certNumber, cert)
	}
	return cert, nil
}

// stageError passes typed errors through unchanged and wraps everything
// else with the stage's code so callers always see stage attribution.
func stageError(err error, code, stage, message string) error {
	var scanErr *models.ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}
	return models.NewScanError(code, stage, message, err)
}
