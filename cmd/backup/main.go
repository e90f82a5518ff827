package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"institute-seed/models"
	"institute-seed/storage"
)

// BackupConfig konfiguriert den Snapshot der Dokumenttabelle.
type BackupConfig struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	BackupBucket    string `envconfig:"BACKUP_S3_BUCKET" required:"true"`
	BackupPrefix    string `envconfig:"BACKUP_S3_PREFIX" default:"snapshots/"`
	BackupEndpoint  string `envconfig:"BACKUP_S3_ENDPOINT"`
	BackupAccessKey string `envconfig:"BACKUP_S3_ACCESS_KEY"`
	BackupSecretKey string `envconfig:"BACKUP_S3_SECRET_KEY"`
	BackupRegion    string `envconfig:"BACKUP_S3_REGION" default:"eu-central-1"`
	KeepBackups     int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

func (c BackupConfig) dsn() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// snapshot ist das Format einer Sicherung.
type snapshot struct {
	CreatedAt time.Time               `json:"created_at"`
	Documents []models.DocumentRecord `json:"documents"`
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if err := run(context.Background(), logging); err != nil {
		logging.Error("Snapshot failed", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, logging *zap.Logger) error {
	_ = godotenv.Load()
	var cfg BackupConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Info("Starting content snapshot")

	// 1. Dokumente lesen
	db, err := storage.OpenPostgres(cfg.dsn())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	recs, err := storage.NewPostgresRepository(db).Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read documents: %w", err)
	}

	now := time.Now().UTC()
	data, err := encodeSnapshot(snapshot{CreatedAt: now, Documents: recs})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	// 2. Hochladen
	client, err := storage.NewS3Client(ctx, storage.S3Settings{
		Endpoint:  cfg.BackupEndpoint,
		Region:    cfg.BackupRegion,
		AccessKey: cfg.BackupAccessKey,
		SecretKey: cfg.BackupSecretKey,
	})
	if err != nil {
		return fmt.Errorf("create S3 client: %w", err)
	}
	key := fmt.Sprintf("%sdocuments-%s.json.gz", cfg.BackupPrefix, now.Format("2006-01-02T15-04-05Z"))
	if err := storage.UploadFile(ctx, client, cfg.BackupBucket, key, data); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	logging.Info("Snapshot uploaded",
		zap.String("location", "s3://"+cfg.BackupBucket+"/"+key),
		zap.Int("documents", len(recs)),
		zap.Int("bytes", len(data)))

	// 3. Alte Snapshots rotieren
	return rotateSnapshots(ctx, client, cfg.BackupBucket, cfg.BackupPrefix, cfg.KeepBackups, logging)
}

func encodeSnapshot(s snapshot) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(s); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rotateSnapshots löscht alles außer den keep neuesten Snapshots unter prefix.
// Einzelne Löschfehler werden nur protokolliert.
func rotateSnapshots(ctx context.Context, client storage.S3API, bucket, prefix string, keep int, logging *zap.Logger) error {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	expired := storage.ExpiredObjects(output.Contents, keep)
	if len(expired) == 0 {
		logging.Info("No rotation needed", zap.Int("snapshots", len(output.Contents)), zap.Int("keep", keep))
		return nil
	}
	for _, obj := range expired {
		logging.Info("Deleting old snapshot", zap.String("key", aws.ToString(obj.Key)))
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    obj.Key,
		}); err != nil {
			logging.Warn("Deleting snapshot failed", zap.String("key", aws.ToString(obj.Key)), zap.Error(err))
		}
	}
	return nil
}
