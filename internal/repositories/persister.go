package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"dobroBack/internal/models"
)

// Persister loads and saves the whole store at once.
type Persister interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// FilePersister keeps the snapshot in a JSON file. A missing file is an empty store.
type FilePersister struct {
	Path string
}

func (p *FilePersister) Load(ctx context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Snapshot{}, nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot %s: %w", p.Path, err)
	}
	return decodeSnapshot(data)
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written snapshot.
func (p *FilePersister) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	dir := filepath.Dir(p.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, p.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// S3Persister keeps the snapshot as a single object in an S3-compatible bucket.
type S3Persister struct {
	Client s3iface.S3API
	Bucket string
	Key    string
}

func (p *S3Persister) Load(ctx context.Context) (models.Snapshot, error) {
	out, err := p.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(p.Key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return models.Snapshot{}, nil
		}
		return models.Snapshot{}, fmt.Errorf("get snapshot s3://%s/%s: %w", p.Bucket, p.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot body: %w", err)
	}
	return decodeSnapshot(data)
}

func (p *S3Persister) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = p.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.Bucket),
		Key:           aws.String(p.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put snapshot s3://%s/%s: %w", p.Bucket, p.Key, err)
	}
	return nil
}

// MemoryPersister holds the snapshot in process. LoadErr and SaveErr let tests
// simulate storage failures.
type MemoryPersister struct {
	mu      sync.Mutex
	snap    models.Snapshot
	saves   int
	LoadErr error
	SaveErr error
}

func (p *MemoryPersister) Load(ctx context.Context) (models.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LoadErr != nil {
		return models.Snapshot{}, p.LoadErr
	}
	return p.snap.Clone(), nil
}

func (p *MemoryPersister) Save(ctx context.Context, snap models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SaveErr != nil {
		return p.SaveErr
	}
	p.snap = snap.Clone()
	p.saves++
	return nil
}

// Saves returns how many snapshots were written.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func decodeSnapshot(data []byte) (models.Snapshot, error) {
	var snap models.Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
