package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadConfig resolves credentials through the default chain for region.
func LoadConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return sdkaws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
