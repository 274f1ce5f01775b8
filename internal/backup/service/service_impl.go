package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invosync/invosync/internal/backup/domain"
	clientdomain "github.com/invosync/invosync/internal/client/domain"
	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/pkg/repository"
)

const (
	filenamePrefix = "invosync-backup-"
	filenameSuffix = ".json"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	dir      string
	clients  repository.Repository[clientdomain.Client]
	invoices repository.Repository[invoicedomain.Invoice]
	items    repository.Repository[invoicedomain.InvoiceItem]
	payments repository.Repository[paymentdomain.Payment]
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("backup.service"),
		clock:    p.Clock,
		dir:      p.Config.BackupDir,
		clients:  repository.New[clientdomain.Client](p.DB),
		invoices: repository.New[invoicedomain.Invoice](p.DB),
		items:    repository.New[invoicedomain.InvoiceItem](p.DB),
		payments: repository.New[paymentdomain.Payment](p.DB),
	}
}

func (s *Service) Export(ctx context.Context) (domain.Snapshot, error) {
	clients, err := s.clients.Find(ctx, repository.OrderBy("created_at asc, id asc"))
	if err != nil {
		return domain.Snapshot{}, err
	}

	invoices, err := s.invoices.Find(ctx, repository.OrderBy("created_at asc, id asc"))
	if err != nil {
		return domain.Snapshot{}, err
	}

	items, err := s.items.Find(ctx, repository.OrderBy("created_at asc, id asc"))
	if err != nil {
		return domain.Snapshot{}, err
	}

	payments, err := s.payments.Find(ctx, repository.OrderBy("paid_at asc, id asc"))
	if err != nil {
		return domain.Snapshot{}, err
	}

	byInvoice := make(map[snowflake.ID]*invoicedomain.Invoice, len(invoices))
	for i := range invoices {
		byInvoice[invoices[i].ID] = &invoices[i]
	}
	for _, item := range items {
		if inv, ok := byInvoice[item.InvoiceID]; ok {
			inv.Items = append(inv.Items, item)
		}
	}
	for _, p := range payments {
		if inv, ok := byInvoice[p.InvoiceID]; ok {
			inv.Payments = append(inv.Payments, p)
		}
	}

	return domain.Snapshot{
		Clients:    clients,
		Invoices:   invoices,
		ExportedAt: s.clock.Now(),
		Version:    domain.SnapshotVersion,
	}, nil
}

func (s *Service) Create(ctx context.Context) (domain.Metadata, error) {
	snapshot, err := s.Export(ctx)
	if err != nil {
		return domain.Metadata{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Metadata{}, fmt.Errorf("create backup directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return domain.Metadata{}, err
	}

	now := s.clock.Now()
	filename := filenamePrefix + now.UTC().Format("20060102-150405") + filenameSuffix
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return domain.Metadata{}, fmt.Errorf("write backup %s: %w", filename, err)
	}

	metadata := domain.Metadata{
		Filename:  filename,
		Timestamp: now,
		RecordCount: domain.RecordCount{
			Clients:  len(snapshot.Clients),
			Invoices: len(snapshot.Invoices),
		},
	}
	s.log.Info("backup created",
		zap.String("filename", filename),
		zap.Int("clients", metadata.RecordCount.Clients),
		zap.Int("invoices", metadata.RecordCount.Invoices),
	)
	return metadata, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Metadata, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []domain.Metadata{}, nil
	}
	if err != nil {
		return nil, err
	}

	backups := make([]domain.Metadata, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filenamePrefix) || !strings.HasSuffix(name, filenameSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, domain.Metadata{
			Filename:    name,
			Timestamp:   info.ModTime(),
			RecordCount: s.readRecordCount(filepath.Join(s.dir, name)),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// readRecordCount peeks into a backup file for its row counts. A
// corrupt file still lists, with zero counts.
func (s *Service) readRecordCount(path string) domain.RecordCount {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RecordCount{}
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.RecordCount{}
	}
	return domain.RecordCount{
		Clients:  len(snapshot.Clients),
		Invoices: len(snapshot.Invoices),
	}
}

func (s *Service) Restore(ctx context.Context, filename string) (domain.RestoreResult, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return domain.RestoreResult{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.RestoreResult{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.RestoreResult{}, err
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.RestoreResult{}, fmt.Errorf("parse backup %s: %w", filename, err)
	}

	var result domain.RestoreResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}

		if len(snapshot.Clients) > 0 {
			if err := tx.Clauses(upsert).Create(&snapshot.Clients).Error; err != nil {
				return err
			}
		}
		result.Clients = len(snapshot.Clients)

		if len(snapshot.Invoices) > 0 {
			if err := tx.Clauses(upsert).Create(&snapshot.Invoices).Error; err != nil {
				return err
			}
		}
		for i := range snapshot.Invoices {
			inv := &snapshot.Invoices[i]
			if err := tx.Delete(&invoicedomain.InvoiceItem{}, "invoice_id = ?", inv.ID).Error; err != nil {
				return err
			}
			if len(inv.Items) > 0 {
				if err := tx.Create(&inv.Items).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&paymentdomain.Payment{}, "invoice_id = ?", inv.ID).Error; err != nil {
				return err
			}
			if len(inv.Payments) > 0 {
				if err := tx.Create(&inv.Payments).Error; err != nil {
					return err
				}
			}
		}
		result.Invoices = len(snapshot.Invoices)
		return nil
	})
	if err != nil {
		return domain.RestoreResult{}, err
	}

	s.log.Info("backup restored",
		zap.String("filename", filename),
		zap.Int("clients", result.Clients),
		zap.Int("invoices", result.Invoices),
	)
	return result, nil
}

func (s *Service) Delete(_ context.Context, filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); os.IsNotExist(err) {
		return domain.ErrNotFound
	} else if err != nil {
		return err
	}
	s.log.Info("backup deleted", zap.String("filename", filename))
	return nil
}

func (s *Service) FilePath(filename string) (string, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", domain.ErrNotFound
	} else if err != nil {
		return "", err
	}
	return path, nil
}

// resolve validates a caller-supplied filename and joins it to the
// backup directory. Path separators and names outside the
// invosync-backup-*.json shape never reach the filesystem.
func (s *Service) resolve(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" ||
		filename != filepath.Base(filename) ||
		!strings.HasPrefix(filename, filenamePrefix) ||
		!strings.HasSuffix(filename, filenameSuffix) {
		return "", domain.ErrInvalidFilename
	}
	return filepath.Join(s.dir, filename), nil
}
