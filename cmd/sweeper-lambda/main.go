package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

type secretPayload struct {
	DatabaseURL string `json:"DATABASE_URL"`
}

// secretGetter is the part of the Secrets Manager client used here.
type secretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func getSecret(ctx context.Context, sm secretGetter, secretArn string) (string, error) {
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretArn})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	var payload secretPayload
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &payload); err != nil {
		return "", fmt.Errorf("parse secret json: %w", err)
	}
	if payload.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL missing in secret")
	}
	return payload.DatabaseURL, nil
}

// metricData turns a sweep report into one RowsDeleted datum per table.
func metricData(report db.SweepReport, now time.Time) []cwtypes.MetricDatum {
	data := make([]cwtypes.MetricDatum, 0, len(models.VariantSecondaryTables))
	for _, table := range models.VariantSecondaryTables {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("RowsDeleted"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(report[table])),
			Dimensions: []cwtypes.Dimension{{Name: aws.String("Table"), Value: aws.String(string(table))}},
		})
	}
	return data
}

func handler(ctx context.Context) (string, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-central-1"
	}
	ns := os.Getenv("METRIC_NAMESPACE")
	if ns == "" {
		ns = "ExpoToWorld/CatalogSweep"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("aws config: %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if secretArn := os.Getenv("SECRET_ARN"); secretArn != "" {
		dbURL, err = getSecret(ctx, secretsmanager.NewFromConfig(awsCfg), secretArn)
		if err != nil {
			return "", err
		}
	}
	if dbURL == "" {
		return "", fmt.Errorf("SECRET_ARN or DATABASE_URL env var is required")
	}

	database, err := db.NewDatabaseWithRetry(ctx, db.Config{URL: dbURL}, 3, 500*time.Millisecond)
	if err != nil {
		return "", err
	}
	defer database.Close()

	report, sweepErr := database.SweepOrphanedDependents(ctx)

	fields := logging.Fields{"total": report.Total()}
	for table, n := range report {
		fields[string(table)] = n
	}
	logging.LogKV(logging.LevelInfo, "catalog sweep summary", fields)

	cw := cloudwatch.NewFromConfig(awsCfg)
	if _, err := cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(ns),
		MetricData: metricData(report, time.Now()),
	}); err != nil {
		logging.LogKV(logging.LevelWarn, "PutMetricData failed", logging.Fields{"error": err})
	}

	if sweepErr != nil {
		return "", sweepErr
	}
	return "ok", nil
}

func main() { lambda.Start(handler) }
