package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrEmptySecret is returned when the secret has neither a string nor a binary value
var ErrEmptySecret = errors.New("secret has no value")

// secretsClient is the subset of the Secrets Manager API used here
type secretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// secretFields maps JSON keys in the secret to the config fields they replace.
func secretFields(cfg *Config) map[string]*string {
	return map[string]*string{
		"database_user":       &cfg.Database.User,
		"database_password":   &cfg.Database.Password,
		"data_source_api_key": &cfg.DataSource.APIKey,
	}
}

// readSecret fetches one secret version and decodes its JSON object.
func readSecret(ctx context.Context, client secretsClient, name, stage string) (map[string]string, error) {
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(name)}
	if stage != "" {
		input.VersionStage = aws.String(stage)
	}

	out, err := client.GetSecretValue(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", name, err)
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case len(out.SecretBinary) > 0:
		raw = out.SecretBinary
	default:
		return nil, fmt.Errorf("secret %s: %w", name, ErrEmptySecret)
	}

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object of strings: %w", name, err)
	}
	return values, nil
}

// applySecrets overwrites config fields with non-empty secret values and
// returns the keys it applied. Unknown keys are ignored.
func applySecrets(cfg *Config, values map[string]string) []string {
	var applied []string
	for key, field := range secretFields(cfg) {
		if v := values[key]; v != "" {
			*field = v
			applied = append(applied, key)
		}
	}
	return applied
}

// LoadSecretsFromAWS overlays database and data source credentials from
// Secrets Manager. It is a no-op unless secrets.enabled is set.
func LoadSecretsFromAWS(ctx context.Context, cfg *Config) error {
	if !cfg.Secrets.Enabled {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Secrets.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	return loadSecrets(ctx, secretsmanager.NewFromConfig(awsCfg), cfg)
}

func loadSecrets(ctx context.Context, client secretsClient, cfg *Config) error {
	values, err := readSecret(ctx, client, cfg.Secrets.SecretName, cfg.Secrets.VersionStage)
	if err != nil {
		return err
	}
	if len(applySecrets(cfg, values)) == 0 {
		return fmt.Errorf("secret %s holds none of the expected keys", cfg.Secrets.SecretName)
	}
	return nil
}
