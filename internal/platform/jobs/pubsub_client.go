package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lprior-repo/sitekit/internal/platform/config"
)

const defaultDialTimeout = 10 * time.Second

// NewPubSubClient creates a Pub/Sub client for cfg. An emulator host disables
// authentication and dials without TLS; otherwise CredentialsFile, when set,
// replaces application default credentials.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig, extra ...option.ClientOption) (*pubsub.Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("pubsub: project id is required")
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	opts := append(clientOptions(cfg), extra...)
	client, err := pubsub.NewClient(dialCtx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: create client: %w", err)
	}
	return client, nil
}

func clientOptions(cfg config.PubSubConfig) []option.ClientOption {
	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		return []option.ClientOption{
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		}
	}
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		return []option.ClientOption{option.WithCredentialsFile(file)}
	}
	return nil
}

// TopicCheck reports an error when topic does not exist or cannot be reached.
func TopicCheck(topic *pubsub.Topic) func(context.Context) error {
	return func(ctx context.Context) error {
		ok, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("pubsub: check topic %s: %w", topic.ID(), err)
		}
		if !ok {
			return fmt.Errorf("pubsub: topic %s does not exist", topic.ID())
		}
		return nil
	}
}
