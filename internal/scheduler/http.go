package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"maremio_backend/internal/adapters/storage"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/platform/httpkit"
)

const (
	msgInvalidBackupKey = "invalid backup key"
	msgInvalidDate      = "date must be yyyy-mm-dd"
	msgQueueUnavailable = "backup queue not configured"
)

// BackupQueue enqueues backup runs.
type BackupQueue interface {
	EnqueueBackup(ctx context.Context, date string) error
}

// BackupReader lists and downloads stored backups.
type BackupReader interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)
}

// BackupsModule exposes stored backups to the back office.
type BackupsModule struct {
	queue  BackupQueue
	reader BackupReader
	bucket string
}

// NewBackupsModule creates the backups routes. queue may be nil when Redis
// is not configured; manual runs then answer 503.
func NewBackupsModule(queue BackupQueue, reader BackupReader, bucket string) *BackupsModule {
	return &BackupsModule{queue: queue, reader: reader, bucket: bucket}
}

func (m *BackupsModule) Name() string {
	return "backups"
}

func (m *BackupsModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/backups")
	group.GET("", m.List)
	group.GET("/:key", m.Download)
	group.POST("/run", m.RunNow)
}

// List returns stored backups, newest first.
// GET /api/v1/backups
func (m *BackupsModule) List(c *gin.Context) {
	objects, err := m.reader.ListObjects(c.Request.Context(), m.bucket, "backup-")
	if httpkit.HandleError(c, err) {
		return
	}
	backups := make([]storage.ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		if backupKeyPattern.MatchString(obj.Key) {
			backups = append(backups, obj)
		}
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Key > backups[j].Key })
	httpkit.OK(c, backups)
}

// Download streams one backup file.
// GET /api/v1/backups/backup-2024-12-24.json
func (m *BackupsModule) Download(c *gin.Context) {
	key := c.Param("key")
	if !backupKeyPattern.MatchString(key) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidBackupKey, nil)
		return
	}
	body, err := m.reader.DownloadFile(c.Request.Context(), m.bucket, key)
	if httpkit.HandleError(c, err) {
		return
	}
	defer func() { _ = body.Close() }()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, key))
	c.DataFromReader(http.StatusOK, -1, "application/json", body, nil)
}

// RunNow queues a backup outside the daily schedule.
// POST /api/v1/backups/run?date=2024-12-24
func (m *BackupsModule) RunNow(c *gin.Context) {
	if m.queue == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgQueueUnavailable, nil)
		return
	}
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidDate, nil)
			return
		}
	}
	if err := m.queue.EnqueueBackup(c.Request.Context(), date); httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "queued"})
}

var (
	_ apphttp.Module = (*BackupsModule)(nil)
	_ BackupQueue    = (*Client)(nil)
	_ BackupReader   = (storage.StorageService)(nil)
)
