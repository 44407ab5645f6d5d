package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
)

// NewClient builds an Elasticsearch client and checks the cluster answers.
func NewClient(ctx context.Context, cfg config.ElasticSettings) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return client, nil
}

// LoginAttemptIndex writes login attempts as documents keyed by attempt id.
type LoginAttemptIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewLoginAttemptIndex constructs the index writer.
func NewLoginAttemptIndex(client *elasticsearch.Client, index string) *LoginAttemptIndex {
	return &LoginAttemptIndex{client: client, index: index}
}

type loginAttemptDocument struct {
	UserID            *string   `json:"user_id,omitempty"`
	Email             string    `json:"email"`
	Outcome           string    `json:"outcome"`
	IP                string    `json:"ip,omitempty"`
	ClientLabel       string    `json:"client_label,omitempty"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	OccurredAt        time.Time `json:"@timestamp"`
}

// RecordLoginAttempt indexes one attempt.
func (i *LoginAttemptIndex) RecordLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(loginAttemptDocument{
		UserID:            attempt.UserID,
		Email:             attempt.Email,
		Outcome:           string(attempt.Outcome),
		IP:                attempt.IP,
		ClientLabel:       attempt.ClientLabel,
		AttemptsRemaining: attempt.AttemptsRemaining,
		OccurredAt:        attempt.OccurredAt.UTC(),
	}); err != nil {
		return fmt.Errorf("encode login attempt: %w", err)
	}

	opts := []func(*esapi.IndexRequest){i.client.Index.WithContext(ctx)}
	if attempt.ID != "" {
		opts = append(opts, i.client.Index.WithDocumentID(attempt.ID))
	}

	res, err := i.client.Index(i.index, &buf, opts...)
	if err != nil {
		return fmt.Errorf("index login attempt: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("index login attempt: %s: %s", res.Status(), body)
	}
	return nil
}

var _ port.AuditSink = (*LoginAttemptIndex)(nil)
