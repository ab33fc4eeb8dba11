package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"docwatch/internal/auth"
	"docwatch/internal/classifier"
	"docwatch/internal/domain"
	"docwatch/internal/normalize"
	"docwatch/internal/port"
	"docwatch/internal/report"
	"docwatch/internal/service"
	"docwatch/internal/statusapi"
	s3storage "docwatch/internal/storage/s3"
)

// watchFlags are shared by watch and upload.
type watchFlags struct {
	out         string
	format      string
	interval    time.Duration
	maxAttempts int
}

func (f *watchFlags) register(fs *flag.FlagSet) {
	fs.StringVarP(&f.out, "out", "o", "", "write the final report to this file")
	fs.StringVarP(&f.format, "format", "f", "", "report format: html, pdf, xlsx or csv (default from --out extension, else html)")
	fs.DurationVar(&f.interval, "interval", 0, "delay between polls (default from DOCWATCH_POLLER_INTERVAL)")
	fs.IntVar(&f.maxAttempts, "max-attempts", 0, "poll budget (default from DOCWATCH_POLLER_MAX_ATTEMPTS)")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func runWatch(ctx context.Context, env *cliEnv, args []string) error {
	var wf watchFlags
	fs := newFlagSet("watch")
	wf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one object key")
	}
	return watch(ctx, env, fs.Arg(0), wf)
}

func runUpload(ctx context.Context, env *cliEnv, args []string) error {
	var wf watchFlags
	var key string
	fs := newFlagSet("upload")
	fs.StringVarP(&key, "key", "k", "", "object key to store the file under (default <upload_prefix>/<uuid>/<name>)")
	wf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one file")
	}

	cfg := env.cfg
	if cfg.S3.Bucket == "" {
		return domain.ErrStorageNotConfigured
	}
	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return err
	}

	file, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}

	objectKey := key
	if objectKey == "" {
		src, err := service.NewSourceService(storage, &cfg.S3).Upload(ctx, service.SourceUploadInput{
			FileName: fs.Arg(0),
			Body:     file,
			Size:     info.Size(),
		})
		if err != nil {
			return err
		}
		objectKey = src.ObjectKey
	} else {
		objectKey = path.Clean(objectKey)
		contentType, ok := domain.SourceContentTypes[trimDot(filepath.Ext(objectKey))]
		if !ok {
			return domain.ErrUnsupportedFileType
		}
		_, err := storage.Upload(ctx, port.UploadInput{
			Bucket:      cfg.S3.Bucket,
			Key:         objectKey,
			Body:        file,
			ContentType: contentType,
			Size:        info.Size(),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
		}
	}
	fmt.Fprintf(env.stdout, "uploaded s3://%s/%s\n", cfg.S3.Bucket, objectKey)

	return watch(ctx, env, objectKey, wf)
}

// watch polls objectKey until it finishes, printing each accepted update,
// then optionally writes the report.
func watch(ctx context.Context, env *cliEnv, objectKey string, wf watchFlags) error {
	format, err := resolveFormat(wf.format, wf.out)
	if err != nil {
		return err
	}

	cfg := env.cfg
	if wf.interval > 0 {
		cfg.Poller.Interval = wf.interval
	}
	if wf.maxAttempts > 0 {
		cfg.Poller.MaxAttempts = wf.maxAttempts
	}

	svc := service.NewRunService(statusapi.NewClient(&cfg.Poller), nil, nil, nil, nil, service.RunServiceConfigFrom(cfg))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(shutdownCtx)
	}()

	_, err = svc.Start(ctx, service.StartRunInput{
		ObjectKey: objectKey,
		OnUpdate: func(v *service.RunView) {
			fmt.Fprintf(env.stdout, "[%d] %s %s\n", v.Attempts, v.Status, describeIssues(v.Issues))
		},
	})
	if err != nil {
		return err
	}

	view, err := svc.Wait(ctx, objectKey)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = svc.Cancel(objectKey)
		}
		return err
	}
	fmt.Fprintf(env.stdout, "finished after %d attempts: %s\n", view.Attempts, view.Status)
	for _, issue := range view.Issues {
		fmt.Fprintf(env.stdout, "  - [%s/%s] %s\n", issue.Level, issue.Stage, issue.UserMessage)
	}

	if wf.out == "" {
		return nil
	}
	art, err := svc.Report(ctx, objectKey, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(wf.out, art.Body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "wrote %s\n", wf.out)
	return nil
}

func runEvaluate(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet("evaluate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one envelope file")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	obj := normalize.AsObject(raw)
	if obj == nil {
		return domain.ErrInvalidEnvelope
	}

	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(classifier.Evaluate(domain.Envelope(obj)))
}

func runLinks(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet("links")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one object key")
	}

	links, err := statusapi.NewClient(&env.cfg.Poller).FetchLinks(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if !links.Ready() {
		fmt.Fprintln(env.stdout, "not ready")
		return nil
	}
	for _, name := range links.Names() {
		fmt.Fprintf(env.stdout, "%s\t%s\n", name, links.URLs[name])
	}
	return nil
}

func runToken(_ context.Context, env *cliEnv, args []string) error {
	var email string
	var ttl time.Duration
	fs := newFlagSet("token")
	fs.StringVar(&email, "email", "", "email claim")
	fs.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one subject")
	}

	tokens := auth.NewTokens(env.cfg.Auth)
	if !tokens.Enabled() {
		return errors.New("DOCWATCH_AUTH_SECRET is not set")
	}
	token, err := tokens.Issue(fs.Arg(0), email, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, token)
	return nil
}

// resolveFormat prefers an explicit --format, then a known --out extension.
func resolveFormat(format, out string) (domain.ReportFormat, error) {
	if format == "" && out != "" {
		ext := domain.ReportFormat(trimDot(filepath.Ext(out)))
		if _, ok := domain.ReportContentTypes[ext]; ok {
			format = string(ext)
		}
	}
	return report.ParseFormat(format)
}

func describeIssues(issues []domain.Issue) string {
	switch len(issues) {
	case 0:
		return ""
	case 1:
		return "(1 issue)"
	}
	return fmt.Sprintf("(%d issues)", len(issues))
}

func trimDot(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
