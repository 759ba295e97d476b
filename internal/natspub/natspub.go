// Package natspub publishes emitted artifacts to NATS so other services can
// follow a documentation build as it happens.
package natspub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/logfields"
)

// Publisher is the subset of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON body of every published artifact.
type Message struct {
	FileName    string    `json:"file_name"`
	Index       bool      `json:"index"`
	Content     string    `json:"content"`
	Fingerprint string    `json:"fingerprint"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// Sink publishes artifacts on "<subject>.doc" and "<subject>.index".
type Sink struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
}

var _ artifact.Sink = (*Sink)(nil)

// NewSink creates a Sink publishing below subject.
func NewSink(pub Publisher, subject string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{pub: pub, subject: subject, logger: logger}
}

// SubjectFor returns the subject an artifact is published on.
func (s *Sink) SubjectFor(a artifact.Artifact) string {
	if a.Index {
		return s.subject + ".index"
	}
	return s.subject + ".doc"
}

func (s *Sink) Emit(ctx context.Context, a artifact.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Message{
		FileName:    a.FileName,
		Index:       a.Index,
		Content:     a.Content,
		Fingerprint: artifact.Fingerprint(a.Content),
		EmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		return derrors.InternalError("failed to marshal artifact message", err)
	}
	subject := s.SubjectFor(a)
	if err := s.pub.Publish(subject, data); err != nil {
		return derrors.Wrap(err, derrors.CategoryNetwork, derrors.SeverityFatal, "failed to publish artifact").
			WithContext("subject", subject).
			WithContext("file", a.FileName)
	}
	s.logger.Debug("Published artifact", logfields.Artifact(a.FileName), slog.String("subject", subject))
	return nil
}

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("docstage"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryNetwork, derrors.SeverityFatal, "failed to connect to NATS").
			WithContext("url", url)
	}
	return conn, nil
}

// Close drains conn so buffered publishes are flushed before it closes.
func Close(conn *nats.Conn) error {
	if conn == nil {
		return nil
	}
	return conn.Drain()
}
