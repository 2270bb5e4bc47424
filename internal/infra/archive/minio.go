package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

// Minio is the object-store flavor of the archive, for deployments where the
// results directory does not survive the host.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio buat koneksi MinIO dan pastikan bucket ada.
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Minio, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Minio{client: cli, bucket: bucket}, nil
}

func objectKey(id domain.JobID) string {
	return fmt.Sprintf("results/%s.json", id)
}

func (m *Minio) Save(ctx context.Context, id domain.JobID, res *domain.Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, m.bucket, objectKey(id), bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (m *Minio) Load(ctx context.Context, id domain.JobID) (*domain.Result, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var res domain.Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decoding archived result %s: %w", id, err)
	}
	return &res, nil
}
