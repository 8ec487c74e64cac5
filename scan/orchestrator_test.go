package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J3698/tcg/cache"
	"github.com/J3698/tcg/models"
	"github.com/J3698/tcg/scrape"
)

type stubResolver struct {
	url string
	err error
}

func (s *stubResolver) Resolve(context.Context, string) (string, error) {
	return s.url, s.err
}

type stubReader struct {
	cert  string
	err   error
	calls int
}

func (s *stubReader) ExtractCertNumber(context.Context, string) (string, error) {
	s.calls++
	return s.cert, s.err
}

type stubRegistry struct {
	record models.CertRecord
	err    error
	calls  int
}

func (s *stubRegistry) Lookup(context.Context, string) (models.CertRecord, error) {
	s.calls++
	return s.record, s.err
}

type stubRunner struct {
	run   *models.ScrapeRun
	calls int
	opts  scrape.RunOptions
}

func (s *stubRunner) Run(_ context.Context, opts scrape.RunOptions) *models.ScrapeRun {
	s.calls++
	s.opts = opts
	return s.run
}

type stubStore struct {
	saveErr    error
	saved      []*models.ScrapeRun
	errorRows  []string
	errRowFail error
}

func (s *stubStore) SaveRun(_ context.Context, run *models.ScrapeRun) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, run)
	return nil
}

func (s *stubStore) SaveRunError(_ context.Context, id, term, errMsg string) error {
	if s.errRowFail != nil {
		return s.errRowFail
	}
	s.errorRows = append(s.errorRows, term+": "+errMsg)
	return nil
}

func goodRun(term string) *models.ScrapeRun {
	return &models.ScrapeRun{
		ID:   uuid.NewString(),
		Term: term,
		Listings: []models.SaleListing{
			{Title: "Charizard PSA 10", Price: 100, SoldAt: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)},
			{Title: "Charizard PSA 10 Holo", Price: 300, SoldAt: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		},
		StopReason: models.StopEmptyPage,
		PagesDone:  2,
		CreatedAt:  time.Now(),
	}
}

func charizardCert() models.CertRecord {
	return models.CertRecord{CertNumber: "12345678", Subject: "CHARIZARD", GradeNumeric: "10"}
}

func TestScan(t *testing.T) {
	reader := &stubReader{cert: "12345678"}
	registry := &stubRegistry{record: charizardCert()}
	runner := &stubRunner{run: goodRun("CHARIZARD")}
	store := &stubStore{}

	o := NewOrchestrator(&stubResolver{url: "https://img.example/card.jpg"},
		reader, registry, runner, store, nil)

	result, err := o.Scan(context.Background(), "cards/card.jpg")
	require.NoError(t, err)

	assert.Equal(t, "cards/card.jpg", result.ImagePath)
	assert.Equal(t, "CHARIZARD", result.Cert.Subject)

	// The scrape term and grade come from the resolved cert.
	assert.Equal(t, "CHARIZARD", runner.opts.Term)
	assert.Equal(t, "10", runner.opts.Grade)

	require.NotNil(t, result.Statistics)
	assert.Equal(t, 200.0, result.Statistics.Average)
	assert.Equal(t, 100.0, result.Statistics.Min)
	assert.Equal(t, 300.0, result.Statistics.Max)

	require.Len(t, store.saved, 1)
	assert.Empty(t, store.errorRows)
}

func TestScanRegistryFailureAbortsBeforeScraping(t *testing.T) {
	reader := &stubReader{cert: "12345678"}
	registry := &stubRegistry{err: models.NewScanError(models.ErrCodeCertLookup, models.StageRegistry, "no record", nil)}
	runner := &stubRunner{run: goodRun("CHARIZARD")}
	store := &stubStore{}

	o := NewOrchestrator(&stubResolver{url: "https://img.example/card.jpg"},
		reader, registry, runner, store, nil)

	_, err := o.Scan(context.Background(), "cards/card.jpg")
	require.Error(t, err)

	var scanErr *models.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, models.StageRegistry, scanErr.Stage)

	// No scraping or persistence once identity resolution fails.
	assert.Equal(t, 0, runner.calls)
	assert.Empty(t, store.saved)
}

func TestScanVisionFailureAttributedToVisionStage(t *testing.T) {
	reader := &stubReader{err: errors.New("model timeout")}
	registry := &stubRegistry{record: charizardCert()}
	runner := &stubRunner{run: goodRun("CHARIZARD")}

	o := NewOrchestrator(&stubResolver{url: "https://img.example/card.jpg"},
		reader, registry, runner, &stubStore{}, nil)

	_, err := o.Scan(context.Background(), "cards/card.jpg")

	var scanErr *models.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, models.ErrCodeVision, scanErr.Code)
	assert.Equal(t, models.StageVision, scanErr.Stage)
	assert.Equal(t, 0, registry.calls)
}

func TestScanUsesCertCache(t *testing.T) {
	reader := &stubReader{cert: "12345678"}
	registry := &stubRegistry{record: charizardCert()}
	runner := &stubRunner{run: goodRun("CHARIZARD")}
	certs := cache.New(10, time.Minute)

	o := NewOrchestrator(&stubResolver{url: "https://img.example/card.jpg"},
		reader, registry, runner, &stubStore{}, certs)

	_, err := o.Scan(context.Background(), "cards/card.jpg")
	require.NoError(t, err)
	_, err = o.Scan(context.Background(), "cards/card.jpg")
	require.NoError(t, err)

	// Second scan hits the cache instead of the registry.
	assert.Equal(t, 1, registry.calls)
	assert.Equal(t, 2, reader.calls)
}

func TestRunAndSaveErrorStopWritesErrorRow(t *testing.T) {
	runner := &stubRunner{run: &models.ScrapeRun{
		ID:         uuid.NewString(),
		Term:       "CHARIZARD",
		Listings:   []models.SaleListing{},
		StopReason: models.StopError,
		PagesDone:  1,
	}}
	store := &stubStore{}

	o := NewOrchestrator(nil, nil, nil, runner, store, nil)

	_, err := o.RunAndSave(context.Background(), scrape.RunOptions{Term: "CHARIZARD"})

	var scanErr *models.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, models.ErrCodeScrape, scanErr.Code)
	assert.Empty(t, store.saved)
	require.Len(t, store.errorRows, 1)
	assert.Contains(t, store.errorRows[0], "CHARIZARD")
}

func TestRunAndSaveStorageFailure(t *testing.T) {
	runner := &stubRunner{run: goodRun("CHARIZARD")}
	store := &stubStore{saveErr: errors.New("connection refused")}

	o := NewOrchestrator(nil, nil, nil, runner, store, nil)

	_, err := o.RunAndSave(context.Background(), scrape.RunOptions{Term: "CHARIZARD"})

	var scanErr *models.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, models.ErrCodeStorage, scanErr.Code)
	assert.Equal(t, models.StageStorage, scanErr.Stage)
	require.Len(t, store.errorRows, 1)
}
