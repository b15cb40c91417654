package transport

import (
	"context"
	"encoding/json"

	"github.com/mealbook/mealbook/internal/album"
	"github.com/mealbook/mealbook/internal/logging"
)

// Dispatcher routes transport events into the album registry and feeds the
// registry's retry/cancel decisions back to the transport.
type Dispatcher struct {
	reg *album.Registry
	tr  Transport
	log logging.Logger

	// Alert surfaces queue-limit rejections, which concern no particular
	// file and therefore have no slot to render into. Nil means the
	// rejection is only logged.
	Alert func(message string)
}

// NewDispatcher wires a dispatcher to the given registry and transport.
func NewDispatcher(reg *album.Registry, tr Transport, log logging.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, tr: tr, log: log}
}

// Handle processes one transport event. Events run to completion in the
// caller's goroutine; the dispatcher adds no concurrency of its own.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case FileQueued:
		rec := d.reg.Create()
		if err := d.reg.BeginUpload(rec, ev.Handle, ev.Filename); err != nil {
			d.log.Warn(ctx, "file rejected at queue time", "handle", ev.Handle, "error", err)
		}

	case FileQueueError:
		d.handleQueueError(ctx, ev)

	case UploadStart:
		if rec := d.lookup(ctx, ev); rec != nil {
			d.reg.MarkUploadStarted(rec)
		}

	case UploadProgress:
		rec := d.lookup(ctx, ev)
		if rec == nil {
			return
		}
		var fraction float64
		if ev.BytesTotal > 0 {
			fraction = float64(ev.BytesLoaded) / float64(ev.BytesTotal)
		}
		d.reg.ReportProgress(rec, fraction)

	case UploadError:
		rec := d.lookup(ctx, ev)
		if rec == nil {
			return
		}
		d.reg.ReportError(rec, album.UploadError{
			Recoverable: ev.Code.Recoverable(),
			Message:     ev.Message,
		})
		// Drop the file at the transport too unless the registry requeued
		// it for another attempt.
		if d.reg.ShouldCancelUpload(rec) || !d.reg.IsRetrying(rec) {
			d.tr.CancelUpload(ev.Handle)
		}

	case UploadSuccess:
		rec := d.lookup(ctx, ev)
		if rec == nil {
			return
		}
		// An unparseable payload decodes to a zero ServerImage, which the
		// registry routes to the bad-response error path.
		var img album.ServerImage
		if err := json.Unmarshal(ev.Payload, &img); err != nil {
			d.log.Error(ctx, "malformed completion payload", "handle", ev.Handle, "error", err)
		}
		if _, err := d.reg.CompleteFromServer(rec, img); err != nil {
			d.log.Error(ctx, "upload completion rejected", "handle", ev.Handle, "error", err)
		}

	case UploadComplete:
		if d.reg.HasUnfinishedUploads() {
			if err := d.tr.StartUpload(ctx); err != nil {
				d.log.Error(ctx, "starting next upload", "error", err)
			}
		}

	default:
		d.log.Warn(ctx, "unknown transport event", "type", int(ev.Type))
	}
}

func (d *Dispatcher) handleQueueError(ctx context.Context, ev Event) {
	if ev.Code == CodeQueueLimit {
		// No file ever entered the queue, so there is no slot to render
		// into: surface the rejection as an alert.
		if d.Alert != nil {
			d.Alert(ev.Message)
		} else {
			d.log.Warn(ctx, "upload queue limit reached", "message", ev.Message)
		}
		return
	}

	rec := d.reg.Create()
	if err := d.reg.BeginUpload(rec, ev.Handle, ev.Filename); err != nil {
		return // bad-file path already rendered
	}
	d.reg.ReportError(rec, album.UploadError{Recoverable: false, Message: ev.Message})
}

// lookup correlates an event back to its record, first by handle, then by
// filename for transports that lose the handle association.
func (d *Dispatcher) lookup(ctx context.Context, ev Event) *album.Record {
	if rec := d.reg.FindByFileHandle(ev.Handle, album.FindOptions{}); rec != nil {
		return rec
	}
	if rec := d.reg.FindByFilename(ev.Filename, album.FindOptions{}); rec != nil {
		return rec
	}
	d.log.Warn(ctx, "event for unknown file", "type", ev.Type.String(), "handle", ev.Handle, "filename", ev.Filename)
	return nil
}
