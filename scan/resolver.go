package scan

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/J3698/tcg/models"
)

// URLResolver resolves stored image references against the image store's
// public base URL. The store itself is an external collaborator; all the
// pipeline needs is a URL the vision API can fetch.
type URLResolver struct {
	base *url.URL
}

// NewURLResolver creates a resolver for the given image store base URL.
func NewURLResolver(baseURL string) (*URLResolver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("scan: parse image base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("scan: image base URL must be absolute: %q", baseURL)
	}
	return &URLResolver{base: base}, nil
}

// Resolve joins the stored path onto the base URL.
func (r *URLResolver) Resolve(_ context.Context, imagePath string) (string, error) {
	if imagePath == "" {
		return "", models.NewScanError(models.ErrCodeImageAccess, models.StageImage,
			"empty image path", nil)
	}
	u := *r.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(imagePath, "/")
	return u.String(), nil
}
