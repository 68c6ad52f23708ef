package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/store"
)

// s3Client is the slice of the S3 API the manager uses, as an interface for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3           S3Config
	DBPath       string
	Passphrase   string
	ScheduleHour int
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Manager produces encrypted database snapshots and uploads them to
// S3-compatible storage, on demand and on a daily schedule.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. It starts disabled when the S3
// credentials or the passphrase are missing.
func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		db:      db,
		backups: bs,
		logger:  logger,
		status:  Status{State: StateDisabled},
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager is configured to run backups.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Start begins the scheduled backup loop. One backup runs per day at the
// configured hour.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		var lastRun time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				now = now.UTC()
				if now.Hour() != m.cfg.ScheduleHour {
					continue
				}
				if !lastRun.IsZero() && now.Sub(lastRun) < 23*time.Hour {
					continue
				}
				lastRun = now
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.done != nil {
		<-m.done
	}
}

// RunNow runs a snapshot-encrypt-upload cycle immediately and returns the
// backup record ID.
func (m *Manager) RunNow(ctx context.Context) (int64, error) {
	if !m.Enabled() {
		return 0, fmt.Errorf("backup not configured")
	}
	m.setStatus(Status{State: StateRunning})

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("choreboard-%s-%s.db.enc", timestamp, uuid.NewString()[:8])
	s3Key := "backups/" + filename

	record, err := m.backups.Create(filename, s3Key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("create backup record: %w", err)
	}

	size, err := m.run(ctx, s3Key, record.ID)
	if err != nil {
		m.backups.UpdateStatus(record.ID, model.BackupStatusFailed, err.Error())
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, err
	}

	m.backups.MarkCompleted(record.ID, size)
	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup complete", "key", s3Key, "bytes", size)
	return record.ID, nil
}

func (m *Manager) run(ctx context.Context, s3Key string, recordID int64) (int64, error) {
	tmpDir := os.TempDir()
	snapshot := filepath.Join(tmpDir, fmt.Sprintf("choreboard-backup-%d.db", recordID))
	encFile := snapshot + ".enc"
	defer os.Remove(snapshot)
	defer os.Remove(encFile)

	// VACUUM INTO takes a consistent snapshot without blocking writers.
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return 0, fmt.Errorf("snapshot database: %w", err)
	}

	if err := EncryptFile(snapshot, encFile, m.cfg.Passphrase); err != nil {
		return 0, fmt.Errorf("encrypt snapshot: %w", err)
	}

	m.backups.UpdateStatus(recordID, model.BackupStatusUploading, "")

	stat, err := os.Stat(encFile)
	if err != nil {
		return 0, fmt.Errorf("stat encrypted file: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := os.Open(encFile)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(m.cfg.S3.Bucket),
			Key:           aws.String(s3Key),
			Body:          f,
			ContentLength: aws.Int64(stat.Size()),
		})
		if err != nil {
			m.logger.Warn("backup upload attempt failed", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upload to s3: %w", err)
	}

	return stat.Size(), nil
}
