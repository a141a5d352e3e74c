// Package registry verifies that the reference sources present in the
// terminology store are also defined in the concept registry (OCL).
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/conceptsync/pkg/common/httpclient"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/terminology"
	"golang.org/x/oauth2"
)

var (
	ErrUnrecognizedSource = errors.New("source not found in registry")
	ErrUnknownOwner       = errors.New("source has no owner in the source directory")
	ErrUnknownEnv         = errors.New("unknown registry environment")
)

var BaseURLs = map[string]string{
	"dev":        "http://api.dev.openconceptlab.com/",
	"staging":    "http://api.staging.openconceptlab.com/",
	"production": "http://api.openconceptlab.com/",
}

// Result is the outcome of checking one store source.
type Result struct {
	StoreName  string
	RegistryID string
	Owner      string
	URL        string
	// Checked is false when no token was configured and only the directory
	// lookup ran.
	Checked bool
	Err     error
}

type Checker struct {
	baseURL  string
	client   *http.Client
	token    string
	catalog  *terminology.Catalog
	attempts int
	backoff  time.Duration
}

type Options struct {
	Env     string
	BaseURL string // overrides Env when set
	Token   string
	Timeout time.Duration
	Catalog *terminology.Catalog
}

func NewChecker(opts Options) (*Checker, error) {
	base := opts.BaseURL
	if base == "" {
		env := strings.ToLower(opts.Env)
		if env == "" {
			env = "production"
		}
		var ok bool
		if base, ok = BaseURLs[env]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnv, opts.Env)
		}
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = terminology.DefaultCatalog()
	}

	client := httpclient.New(opts.Timeout)
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Token"})
		authed := oauth2.NewClient(ctx, src)
		authed.Timeout = opts.Timeout
		client = authed
	}

	return &Checker{
		baseURL:  base,
		client:   client,
		token:    opts.Token,
		catalog:  catalog,
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}, nil
}

// Check verifies each store source name. Every source is checked; the
// returned error joins the individual failures.
func (c *Checker) Check(ctx context.Context, storeNames []string) ([]Result, error) {
	results := make([]Result, 0, len(storeNames))
	var errs []error
	for _, name := range storeNames {
		res := c.checkOne(ctx, name)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		entry := logger.WithFields(logrus.Fields{
			"source":      res.StoreName,
			"registry_id": res.RegistryID,
			"owner":       res.Owner,
		})
		switch {
		case res.Err != nil:
			entry.WithError(res.Err).Warn("reference source check failed")
			errs = append(errs, res.Err)
		case res.Checked:
			entry.WithField("url", res.URL).Info("found source in registry")
		default:
			entry.Info("no api token provided, skipping registry check")
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (c *Checker) checkOne(ctx context.Context, storeName string) Result {
	res := Result{StoreName: storeName, RegistryID: c.catalog.RegistryID(storeName)}
	src, ok := c.catalog.Lookup(res.RegistryID)
	if !ok || src.Owner == "" {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownOwner, res.RegistryID)
		return res
	}
	res.Owner = src.Owner
	ownerType := src.OwnerType
	if ownerType == "" {
		ownerType = "orgs"
	}
	res.URL = fmt.Sprintf("%s%s/%s/sources/%s/", c.baseURL, ownerType, src.Owner, res.RegistryID)
	if c.token == "" {
		return res
	}

	res.Checked = true
	var status int
	err := httpclient.Retry(ctx, c.attempts, c.backoff, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, res.URL, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		status = resp.StatusCode
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("registry returned %d", status)
		}
		return nil
	})
	switch {
	case err != nil:
		res.Err = fmt.Errorf("check %s: %w", res.URL, err)
	case status != http.StatusOK:
		res.Err = fmt.Errorf("%w: %s returned %d", ErrUnrecognizedSource, res.URL, status)
	}
	return res
}
