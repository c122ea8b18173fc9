package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vvka-141/oews/internal/retry"
	"github.com/vvka-141/oews/pkg/oews"
)

// TokenBasedConnector implements Connector for cloud providers that
// authenticate via short-lived tokens (AWS IAM, Azure Entra ID). A token is
// acquired before every new physical connection, so pools outlive a single token.
type TokenBasedConnector struct {
	config        *oews.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        oews.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *oews.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger oews.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(logger),
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context, database string) (*sql.DB, error) {
	opts := dialOptions{
		password:  c.token,
		cleartext: c.config.Driver == oews.DriverMySQL,
	}
	return retry.Do(ctx, c.retryExecutor, func(ctx context.Context) (*sql.DB, error) {
		dc, err := newDriverConnector(c.config, database, opts)
		if err != nil {
			return nil, err
		}
		return openPool(ctx, dc, c.config, database)
	})
}

// token acquires a fresh token and warns when it is close to expiry.
func (c *TokenBasedConnector) token(ctx context.Context) (string, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
	}
	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
	}
	c.logger.Verbose("acquired %s token from %s", c.providerName, c.tokenProvider)
	return token, nil
}
