package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"time"

	"docwatch/internal/classifier"
	"docwatch/internal/domain"
	"docwatch/internal/port"
)

// analysisFile holds the machine-readable evaluation next to the rendered reports.
const analysisFile = "analysis.json"

// artifactChannels lists what is published for a finished run, in link order.
var artifactChannels = []struct {
	channel string
	format  domain.ReportFormat
	file    string
}{
	{"html", domain.ReportFormatHTML, "report.html"},
	{"pdf", domain.ReportFormatPDF, "report.pdf"},
	{"xlsx", domain.ReportFormatXLSX, "summary.xlsx"},
	{"csv", domain.ReportFormatCSV, "summary.csv"},
	{"json", "", analysisFile},
}

// ArtifactKey returns the storage key of file for objectKey under prefix.
func ArtifactKey(prefix, objectKey, file string) string {
	return path.Join(prefix, objectKey, file)
}

// publish renders and uploads every artifact of a finished run. It returns a
// presigned URL of the HTML report, or "" when that upload failed.
func (s *runService) publish(ctx context.Context, objectKey string, ev *classifier.Evaluation, generatedAt time.Time) string {
	reportURL := ""
	for _, a := range artifactChannels {
		var (
			body        []byte
			contentType string
		)
		if a.format == "" {
			data, err := json.MarshalIndent(ev, "", "  ")
			if err != nil {
				log.Printf("runService.publish: encoding %s for %s: %v", a.file, objectKey, err)
				continue
			}
			body, contentType = data, "application/json"
		} else {
			art, err := s.render(a.format, ev, objectKey, generatedAt)
			if err != nil {
				log.Printf("runService.publish: %v", err)
				continue
			}
			body, contentType = art.Body, art.ContentType
		}

		key := ArtifactKey(s.cfg.ArtifactPrefix, objectKey, a.file)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.cfg.Bucket,
			Key:         key,
			Body:        bytes.NewReader(body),
			ContentType: contentType,
			Size:        int64(len(body)),
		})
		if err != nil {
			log.Printf("runService.publish: S3 upload failed for %s: %v", key, err)
			continue
		}

		if a.format == domain.ReportFormatHTML {
			url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, key, s.cfg.PresignExpiry)
			if err != nil {
				log.Printf("runService.publish: presign failed for %s: %v", key, err)
				continue
			}
			reportURL = url
		}
	}
	log.Printf("runService.publish: published artifacts for %s", objectKey)
	return reportURL
}

func (s *runService) Links(ctx context.Context, objectKey string) (*LinksView, error) {
	if objectKey == "" {
		return nil, domain.ErrMissingObjectKey
	}
	if s.storage == nil || s.cfg.Bucket == "" {
		return nil, domain.ErrStorageNotConfigured
	}

	view := &LinksView{ObjectKey: objectKey, URLs: map[string]string{}}
	for _, a := range artifactChannels {
		key := ArtifactKey(s.cfg.ArtifactPrefix, objectKey, a.file)
		ok, err := s.storage.Exists(ctx, s.cfg.Bucket, key)
		if err != nil {
			return nil, fmt.Errorf("checking artifact %s: %w", key, err)
		}
		if !ok {
			continue
		}
		url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, key, s.cfg.PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presigning artifact %s: %w", key, err)
		}
		view.URLs[a.channel] = url
	}
	view.Ready = len(view.URLs) > 0
	return view, nil
}
