package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNoDataRoot wird gemeldet, wenn weder Override noch Kandidatenpfad existiert.
var ErrNoDataRoot = errors.New("no data root found")

// Reader liest Quelldateien relativ zu einer Datenwurzel.
// Fehlende Dateien werden als fs.ErrNotExist gemeldet.
type Reader interface {
	ReadFile(ctx context.Context, rel string) ([]byte, error)
	Root() string
}

// DirReader liest aus einem lokalen Verzeichnis.
type DirReader struct {
	root string
}

// NewDirReader erstellt einen Reader für ein lokales Verzeichnis.
func NewDirReader(root string) *DirReader {
	return &DirReader{root: root}
}

func (d *DirReader) Root() string { return d.root }

func (d *DirReader) ReadFile(_ context.Context, rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(rel)))
}

// S3GetObjectAPI ist der Ausschnitt des S3-Clients, den der Reader braucht.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Reader liest Quelldateien aus einem S3-Bucket unter einem Präfix.
type S3Reader struct {
	client S3GetObjectAPI
	bucket string
	prefix string
}

// NewS3Reader erstellt einen Reader für s3://bucket/prefix.
func NewS3Reader(client S3GetObjectAPI, bucket, prefix string) *S3Reader {
	return &S3Reader{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (r *S3Reader) Root() string {
	return "s3://" + path.Join(r.bucket, r.prefix)
}

func (r *S3Reader) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	key := path.Join(r.prefix, rel)
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s: %w", r.bucket, key, fs.ErrNotExist)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ParseS3URI zerlegt s3://bucket/prefix. ok ist false für andere Pfade.
func ParseS3URI(uri string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, strings.Trim(prefix, "/"), true
}

// ResolveRoot bestimmt die Datenwurzel: der Override gewinnt, sonst der erste
// existierende Kandidat relativ zu base.
func ResolveRoot(override, base string, candidates []string) (string, error) {
	if override != "" {
		return override, nil
	}
	for _, c := range candidates {
		p := filepath.Join(base, filepath.FromSlash(c))
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (searched %s under %s)", ErrNoDataRoot, strings.Join(candidates, ", "), base)
}
