package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) GetSecretValue(context.Context, *secretsmanager.GetSecretValueInput, ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestGetSecret(t *testing.T) {
	url, err := getSecret(context.Background(), fakeSecrets{value: `{"DATABASE_URL":"postgres://x"}`}, "arn")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", url)

	_, err = getSecret(context.Background(), fakeSecrets{value: `{}`}, "arn")
	assert.ErrorContains(t, err, "DATABASE_URL missing")

	_, err = getSecret(context.Background(), fakeSecrets{value: `not json`}, "arn")
	assert.ErrorContains(t, err, "parse secret json")

	_, err = getSecret(context.Background(), fakeSecrets{err: errors.New("denied")}, "arn")
	assert.ErrorContains(t, err, "get secret")
}

func TestMetricData(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	data := metricData(db.SweepReport{models.TableOrderItems: 4}, now)
	require.Len(t, data, len(models.VariantSecondaryTables))

	byTable := map[string]float64{}
	for _, d := range data {
		byTable[aws.ToString(d.Dimensions[0].Value)] = aws.ToFloat64(d.Value)
		assert.Equal(t, now, aws.ToTime(d.Timestamp))
	}
	assert.Equal(t, float64(4), byTable["order_items"])
	assert.Equal(t, float64(0), byTable["cart_items"])
}
