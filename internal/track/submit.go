package track

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"guidetrack/internal/apperrors"
	"guidetrack/internal/remote"
)

// Validation limits
const (
	maxUploadSize    = 20 << 20 // 20 MB
	minRoleTitleLen  = 3
	maxRoleTitleLen  = 120
	defaultFilename  = "upload.pdf"
	pdfMIMEType      = "application/pdf"
	maxContextLength = 4000
)

// SubmitRequest carries one submission. The File reader is consumed exactly
// once by Submit; callers must not reuse it.
type SubmitRequest struct {
	WebsiteURL     string
	RoleTitle      string
	CompanyName    string // optional
	CompanyContext string // optional
	Filename       string
	File           io.Reader
}

// Submit validates the request, creates a job record, and performs the
// remote creation call. On invalid input it returns a validation error
// having made no mutation and no network call. The returned record reflects
// the creation outcome: Polling (or already terminal) on success, Failed on
// a creation error.
func (t *Tracker) Submit(ctx context.Context, req SubmitRequest) (Record, error) {
	params, pdf, err := validateSubmit(req)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordSubmission(ctx, false)
		}
		return Record{}, err
	}

	now := t.now()
	rec := Record{
		LocalID:   uuid.NewString(),
		CreatedAt: now,
		Params:    params,
		Phase:     PhaseSubmitting,
	}
	if err := t.store.Insert(rec); err != nil {
		return Record{}, apperrors.Internal("track.insert", err)
	}
	t.ensureScheduler()

	logger := slog.With("component", "tracker", "localId", rec.LocalID)

	created, err := t.client.CreateGuide(ctx, remote.CreateRequest{
		WebsiteURL:     params.WebsiteURL,
		RoleTitle:      params.RoleTitle,
		CompanyName:    params.CompanyName,
		CompanyContext: params.CompanyContext,
		Filename:       params.Filename,
		PDF:            pdf,
	})
	if err != nil {
		creationErr := apperrors.Creation("remote.createGuide", err)
		failed, _ := t.store.Update(rec.LocalID, func(r *Record) {
			r.Phase = PhaseFailed
			r.Error = creationErr.Error()
		})
		if t.metrics != nil {
			t.metrics.RecordSubmission(ctx, false)
		}
		t.publish(EventTypeFailed, failed)
		logger.Error("Job creation failed", "error", err)
		return failed, creationErr
	}

	class := Classify(created.Status)
	var terminal bool
	updated, _ := t.store.Update(rec.LocalID, func(r *Record) {
		r.RemoteID = created.GuideID
		r.RemoteStatus = created.Status
		ts := t.now()
		r.PollingStartedAt = &ts
		r.LastPolledAt = &ts
		r.Phase = class.Phase()
		terminal = r.Phase.Terminal()
	})
	if t.metrics != nil {
		t.metrics.RecordSubmission(ctx, true)
	}
	logger.Info("Job created", "remoteId", created.GuideID, "status", created.Status)

	switch {
	case terminal && updated.Phase == PhaseFailed:
		if t.metrics != nil {
			t.metrics.RecordJobTerminal(ctx, false, t.now().Sub(updated.CreatedAt).Seconds())
		}
		t.publish(EventTypeFailed, updated)
	case terminal:
		if t.metrics != nil {
			t.metrics.RecordJobTerminal(ctx, true, t.now().Sub(updated.CreatedAt).Seconds())
		}
		t.publish(EventTypeCompleted, updated)
		// A job terminal at creation never becomes a scheduler candidate,
		// so its one-time result fetch happens here.
		if class == ClassDone && !updated.ResultsFetched && t.acquire(updated.LocalID) {
			t.fetchResults(ctx, updated)
			t.release(updated.LocalID)
		}
	default:
		t.publish(EventTypeSubmitted, updated)
		// The record just became a polling candidate; restart the
		// scheduler if it suspended while creation was in flight.
		t.ensureScheduler()
	}

	final, _ := t.store.Get(rec.LocalID)
	return final, nil
}

// validateSubmit checks required fields and the uploaded file, returning the
// immutable params snapshot and the file content. The reader is fully
// consumed here so the caller's handle is never reused.
func validateSubmit(req SubmitRequest) (Params, []byte, error) {
	website := strings.TrimSpace(req.WebsiteURL)
	if website == "" {
		return Params{}, nil, apperrors.Validation("websiteUrl", "website URL is required")
	}
	if err := validateURL(website); err != nil {
		return Params{}, nil, apperrors.Validation("websiteUrl", fmt.Sprintf("invalid website URL: %v", err))
	}

	role := strings.TrimSpace(req.RoleTitle)
	if role == "" {
		return Params{}, nil, apperrors.Validation("roleTitle", "role title is required")
	}
	if len(role) < minRoleTitleLen {
		return Params{}, nil, apperrors.Validation("roleTitle", fmt.Sprintf("role title must be at least %d characters", minRoleTitleLen))
	}
	if len(role) > maxRoleTitleLen {
		return Params{}, nil, apperrors.Validation("roleTitle", fmt.Sprintf("role title exceeds maximum length of %d", maxRoleTitleLen))
	}

	companyContext := strings.TrimSpace(req.CompanyContext)
	if len(companyContext) > maxContextLength {
		return Params{}, nil, apperrors.Validation("companyContext", fmt.Sprintf("company context exceeds maximum length of %d", maxContextLength))
	}

	if req.File == nil {
		return Params{}, nil, apperrors.Validation("pdf", "a PDF file is required")
	}
	pdf, err := io.ReadAll(io.LimitReader(req.File, maxUploadSize+1))
	if err != nil {
		return Params{}, nil, apperrors.Validation("pdf", fmt.Sprintf("reading upload: %v", err))
	}
	if len(pdf) == 0 {
		return Params{}, nil, apperrors.Validation("pdf", "uploaded file is empty")
	}
	if len(pdf) > maxUploadSize {
		return Params{}, nil, apperrors.Validation("pdf", fmt.Sprintf("file exceeds maximum size of %d bytes", maxUploadSize))
	}
	if !mimetype.Detect(pdf).Is(pdfMIMEType) {
		return Params{}, nil, apperrors.Validation("pdf", "file must be a PDF")
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = defaultFilename
	}

	return Params{
		WebsiteURL:     website,
		RoleTitle:      role,
		CompanyName:    strings.TrimSpace(req.CompanyName),
		CompanyContext: companyContext,
		Filename:       filename,
	}, pdf, nil
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
