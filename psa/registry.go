// Package psa resolves certification numbers to card identity and grade
// via the PSA public cert registry.
package psa

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-resty/resty/v2"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/models"
)

var reFirstInt = regexp.MustCompile(`\d+`)

// certResponse mirrors the registry's GetByCertNumber payload.
type certResponse struct {
	PSACert *certData `json:"PSACert"`
}

type certData struct {
	CertNumber       string `json:"CertNumber"`
	CardGrade        string `json:"CardGrade"`
	GradeDescription string `json:"GradeDescription"`
	Subject          string `json:"Subject"`
	Year             string `json:"Year"`
	Brand            string `json:"Brand"`
	Category         string `json:"Category"`
}

// Client looks up cert records in the registry.
type Client struct {
	client *resty.Client
}

// NewClient creates a registry client from configuration.
func NewClient(cfg config.RegistryConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.AccessToken).
		SetTimeout(cfg.Timeout)
	return &Client{client: client}
}

// Lookup resolves a certification number to a CertRecord. A missing
// record, or a record whose grade or subject cannot be extracted, is a
// hard failure: without card identity no further processing is possible.
func (c *Client) Lookup(ctx context.Context, certNumber string) (models.CertRecord, error) {
	var payload certResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/publicapi/cert/GetByCertNumber/" + certNumber)
	if err != nil {
		return models.CertRecord{}, models.NewScanError(models.ErrCodeCertLookup, models.StageRegistry,
			"cert registry request failed", err)
	}
	if resp.IsError() {
		return models.CertRecord{}, models.NewScanError(models.ErrCodeCertLookup, models.StageRegistry,
			fmt.Sprintf("cert registry returned %d for cert %s", resp.StatusCode(), certNumber), nil)
	}
	if payload.PSACert == nil {
		return models.CertRecord{}, models.NewScanError(models.ErrCodeCertLookup, models.StageRegistry,
			"cert registry returned no record for cert "+certNumber, nil)
	}

	cert := payload.PSACert

	// Numeric grade is the first integer run in the free-text grade
	// field, e.g. "MINT 9" -> "9".
	gradeNumeric := reFirstInt.FindString(cert.CardGrade)
	if gradeNumeric == "" || cert.Subject == "" {
		return models.CertRecord{}, models.NewScanError(models.ErrCodeCertLookup, models.StageRegistry,
			fmt.Sprintf("could not extract grade or subject for cert %s (grade %q, subject %q)",
				certNumber, cert.CardGrade, cert.Subject), nil)
	}

	return models.CertRecord{
		CertNumber:       cert.CertNumber,
		Subject:          cert.Subject,
		GradeNumeric:     gradeNumeric,
		GradeDescription: cert.GradeDescription,
		Year:             cert.Year,
		Brand:            cert.Brand,
		Category:         cert.Category,
	}, nil
}
