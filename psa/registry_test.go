package psa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/models"
)

func registryServer(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient(config.RegistryConfig{
		BaseURL:     srv.URL,
		AccessToken: "test-token",
		Timeout:     5 * time.Second,
	})
}

func TestLookup(t *testing.T) {
	c := registryServer(t, http.StatusOK, `{
		"PSACert": {
			"CertNumber": "12345678",
			"CardGrade": "MINT 9",
			"GradeDescription": "MINT",
			"Subject": "CHARIZARD",
			"Year": "1999",
			"Brand": "POKEMON GAME",
			"Category": "TCG Cards"
		}
	}`)

	record, err := c.Lookup(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", record.CertNumber)
	assert.Equal(t, "CHARIZARD", record.Subject)
	assert.Equal(t, "9", record.GradeNumeric)
	assert.Equal(t, "MINT", record.GradeDescription)
	assert.Equal(t, "1999", record.Year)
}

func TestLookupGemMintGrade(t *testing.T) {
	c := registryServer(t, http.StatusOK, `{
		"PSACert": {"CertNumber": "1", "CardGrade": "GEM MT 10", "Subject": "PIKACHU"}
	}`)

	record, err := c.Lookup(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "10", record.GradeNumeric)
}

func TestLookupMissingRecord(t *testing.T) {
	c := registryServer(t, http.StatusOK, `{"PSACert": null}`)

	_, err := c.Lookup(context.Background(), "999")
	require.Error(t, err)

	var scanErr *models.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, models.ErrCodeCertLookup, scanErr.Code)
	assert.Equal(t, models.StageRegistry, scanErr.Stage)
}

func TestLookupHTTPError(t *testing.T) {
	c := registryServer(t, http.StatusNotFound, `{}`)

	_, err := c.Lookup(context.Background(), "999")
	var scanErr *models.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, models.ErrCodeCertLookup, scanErr.Code)
}

func TestLookupUnusableGradeOrSubject(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no numeric grade", `{"PSACert": {"CertNumber": "1", "CardGrade": "AUTHENTIC", "Subject": "PIKACHU"}}`},
		{"no subject", `{"PSACert": {"CertNumber": "1", "CardGrade": "MINT 9", "Subject": ""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := registryServer(t, http.StatusOK, tt.body)
			_, err := c.Lookup(context.Background(), "1")
			var scanErr *models.ScanError
			require.ErrorAs(t, err, &scanErr)
			assert.Equal(t, models.StageRegistry, scanErr.Stage)
		})
	}
}
