// email_handler.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"PricingIntelligence/src/datasource/file"
	"PricingIntelligence/src/storage"

	"go.uber.org/zap"
)

// XLSXAttachmentHandler saves fare attachments of matching mails into
// DataDir, once per UID.
type XLSXAttachmentHandler struct {
	TargetSubject string
	DataDir       string
	logger        *storage.Logger
	processedUIDs map[uint32]bool
	saved         []string
	mu            sync.RWMutex
	handling      sync.Mutex
}

func NewXLSXAttachmentHandler(subject, dataDir string, logger *storage.Logger) *XLSXAttachmentHandler {
	return &XLSXAttachmentHandler{
		TargetSubject: subject,
		DataDir:       dataDir,
		logger:        logger,
		processedUIDs: make(map[uint32]bool),
	}
}

func (h *XLSXAttachmentHandler) isProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

func (h *XLSXAttachmentHandler) markAsProcessed(uid uint32, paths []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
	h.saved = append(h.saved, paths...)
}

// Saved lists every attachment written so far, oldest first.
func (h *XLSXAttachmentHandler) Saved() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.saved...)
}

// Handle writes the .xlsx and .csv attachments of email. Mails with another
// subject, or already handled, are skipped.
func (h *XLSXAttachmentHandler) Handle(email *Email) error {
	h.handling.Lock()
	defer h.handling.Unlock()
	if h.isProcessed(email.UID) {
		return nil
	}

	if !strings.Contains(email.Subject, h.TargetSubject) {
		h.logger.Debug("skip mail with other subject", zap.String("subject", email.Subject))
		return nil
	}

	h.logger.Info("handling fare mail",
		zap.String("subject", email.Subject),
		zap.String("from", email.From),
		zap.Time("date", email.Date))

	if err := file.EnsureDir(h.DataDir); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var saved []string
	for _, attachment := range email.Attachments {
		if !file.IsFareFile(attachment.Filename) {
			continue
		}

		filePath := filepath.Join(h.DataDir, filepath.Base(attachment.Filename))
		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return fmt.Errorf("save attachment: %w", err)
		}

		h.logger.Info("attachment saved", zap.String("path", filePath))
		saved = append(saved, filePath)
	}

	if len(saved) > 0 {
		h.markAsProcessed(email.UID, saved)
	}
	return nil
}
