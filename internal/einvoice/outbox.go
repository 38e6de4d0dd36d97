package einvoice

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"gstfiling/internal/port"
)

// Outbox is an EInvoiceClient that drops payloads into a folder for the IRP
// bulk upload tool instead of calling the portal. It never acknowledges a
// document, so IRNs stay unset until the next run against a live client.
type Outbox struct {
	fs     afero.Fs
	dir    string
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewOutbox creates an Outbox writing under dir.
func NewOutbox(fs afero.Fs, dir string, logger logrus.FieldLogger) *Outbox {
	return &Outbox{fs: fs, dir: dir, now: time.Now, logger: logger}
}

func (o *Outbox) Upload(_ context.Context, payload []byte) (*port.EInvoiceResult, error) {
	if err := o.fs.MkdirAll(o.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating outbox: %w", err)
	}
	path := filepath.Join(o.dir, "einv_"+o.now().Format("20060102_150405")+".json")
	if err := afero.WriteFile(o.fs, path, payload, 0o644); err != nil {
		return nil, fmt.Errorf("writing outbox payload: %w", err)
	}
	o.logger.WithField("path", path).Info("e-invoice payload queued for bulk upload")
	return &port.EInvoiceResult{}, nil
}

var _ port.EInvoiceClient = (*Outbox)(nil)
