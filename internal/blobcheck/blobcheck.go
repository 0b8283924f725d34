// Package blobcheck tells whether the model image for a vehicle make and
// model has been uploaded to object storage.
package blobcheck

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPrefix is the key prefix model images live under.
const DefaultPrefix = "models"

// maxConcurrentChecks bounds parallel HEAD requests in Missing.
const maxConcurrentChecks = 8

// Config locates the image bucket.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// HeadObjectAPI is the part of the S3 client the Checker needs.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Model identifies a vehicle make and model.
type Model struct {
	Make  string
	Model string
}

// Checker runs existence checks against one bucket.
type Checker struct {
	client HeadObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

// New builds a Checker with an S3 client for cfg. Static credentials are used
// when given, otherwise the default AWS credential chain.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Checker, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("image bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithClient builds a Checker around an existing client.
func NewWithClient(client HeadObjectAPI, bucket, prefix string, logger zerolog.Logger) *Checker {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Checker{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With().Str("component", "blobcheck").Str("bucket", bucket).Logger(),
	}
}

// Key returns the object key for a make and model:
// <prefix>/<make-slug>/<model-slug>.png.
func (c *Checker) Key(vehicleMake, model string) string {
	return path.Join(c.prefix, Slug(vehicleMake), Slug(model)+".png")
}

// Exists reports whether the image for a make and model is present.
func (c *Checker) Exists(ctx context.Context, vehicleMake, model string) (bool, error) {
	if Slug(vehicleMake) == "" || Slug(model) == "" {
		return false, fmt.Errorf("make and model are required, got %q %q", vehicleMake, model)
	}

	key := c.Key(vehicleMake, model)
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		c.logger.Debug().Str("key", key).Msg("model image missing")
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

// Missing checks every distinct make and model and returns those without an
// image, in input order. The first error aborts the remaining checks.
func (c *Checker) Missing(ctx context.Context, models []Model) ([]Model, error) {
	var unique []Model
	seen := make(map[string]bool)
	for _, m := range models {
		k := c.Key(m.Make, m.Model)
		if !seen[k] {
			seen[k] = true
			unique = append(unique, m)
		}
	}

	var (
		mu      sync.Mutex
		missing = make(map[int]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, m := range unique {
		g.Go(func() error {
			ok, err := c.Exists(gctx, m.Make, m.Model)
			if err != nil {
				return err
			}
			if !ok {
				mu.Lock()
				missing[i] = true
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Model, 0, len(missing))
	for i, m := range unique {
		if missing[i] {
			out = append(out, m)
		}
	}
	return slices.Clip(out), nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Slug lower-cases s, strips accents, and joins runs of letters and digits
// with single hyphens: "Mercedes-Benz  Clase A" becomes "mercedes-benz-clase-a".
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
