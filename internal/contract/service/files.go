package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/metrics"
)

// Attachment is an uploaded file waiting to be stored.
type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Liquidation bool
}

// objectKey builds "{contractId}/{unixMillis}_{filename}".
func (s *Service) objectKey(contractID, fileName string) string {
	return fmt.Sprintf("%s/%d_%s", contractID, s.now().UnixMilli(), fileName)
}

func cleanFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// UploadFile stores an attachment for a contract. Liquidation documents are
// accepted only once the contract has been signed.
func (s *Service) UploadFile(ctx context.Context, actor Actor, contractID string, a Attachment) (*contract.File, error) {
	c, err := s.store.Contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, actor, c, a)
}

func (s *Service) attach(ctx context.Context, actor Actor, c *contract.Contract, a Attachment) (*contract.File, error) {
	name := cleanFileName(a.FileName)
	v := &contract.ValidationError{}
	if name == "" {
		v.Add("file", "file name is required")
	}
	if a.Body == nil {
		v.Add("file", "content is required")
	}
	if a.Liquidation && !contract.AcceptsLiquidationDocument(c.Status) {
		v.Add("is_liquidation", fmt.Sprintf("contract in status %s cannot take a liquidation document", c.Status))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := s.objectKey(c.ID, name)
	if err := s.objects.UploadFile(ctx, key, a.Body, a.Size, contentType); err != nil {
		metrics.FileUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	f := &contract.File{
		ContractID:    c.ID,
		FileName:      name,
		FilePath:      key,
		FileType:      contentType,
		UploadedBy:    actor.userID(),
		IsLiquidation: a.Liquidation,
		CreatedAt:     s.now(),
	}
	if err := s.store.Files.Create(ctx, f); err != nil {
		metrics.FileUploads.WithLabelValues("orphaned").Inc()
		logger.FromContext(ctx).Errorf("file metadata for %s not stored, object orphaned: %v", key, err)
		return nil, fmt.Errorf("store file metadata: %w", err)
	}
	metrics.FileUploads.WithLabelValues("ok").Inc()
	return f, nil
}

func (s *Service) ListFiles(ctx context.Context, contractID string) ([]*contract.File, error) {
	if _, err := s.store.Contracts.Get(ctx, contractID); err != nil {
		return nil, err
	}
	return s.store.Files.ListByContract(ctx, contractID)
}

// OpenFile returns the file metadata and a reader over its content. The caller
// closes the reader.
func (s *Service) OpenFile(ctx context.Context, id string) (*contract.File, io.ReadCloser, error) {
	f, err := s.store.Files.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.DownloadFile(ctx, f.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", f.FilePath, err)
	}
	return f, rc, nil
}

// FileURL returns a time-limited download link for a file.
func (s *Service) FileURL(ctx context.Context, id string) (string, error) {
	f, err := s.store.Files.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.objects.GetPresignedURL(ctx, f.FilePath, s.urlTTL)
}

// DeleteFile removes the metadata row, then the object. A failed object
// delete is logged and left behind.
func (s *Service) DeleteFile(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	f, err := s.store.Files.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Files.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.objects.DeleteFile(ctx, f.FilePath); err != nil {
		logger.FromContext(ctx).Warnf("orphaned object %s: %v", f.FilePath, err)
	}
	return nil
}
