package store

import (
	"io"

	"github.com/arch-suite/arch-suite/lib/log"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	SchemeLocal = ""
	SchemeS3    = "s3"
	SchemeTFTP  = "tftp"

	defaultTFTPPort = "69"
)

// Location identifies a snapshot. Examples:
//
//	/home/alice/arch-suite-work/snapshot-20240101.tar.gz
//	s3://backups/workstation/snapshot-20240101.tar.gz
//	tftp://10.0.0.1/snapshot-20240101.tar.gz
type Location struct {
	Scheme string
	Host   string // Bucket for s3, server[:port] for tftp.
	Path   string // Key for s3, file name for tftp, path for local.
}

func (l Location) String() string {
	return l.string()
}

// Parse parses a snapshot location. Strings without a scheme are local
// paths.
func Parse(location string) (Location, error) {
	return parse(location)
}

type uploader interface {
	Upload(input *s3manager.UploadInput,
		options ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

type downloader interface {
	Download(w io.WriterAt, input *s3.GetObjectInput,
		options ...func(*s3manager.Downloader)) (int64, error)
}

// Store moves snapshot archives between the local work directory and a
// remote location.
type Store struct {
	region  string
	logger  log.DebugLogger
	connect func(region string) (uploader, downloader, error)
}

func New(region string, logger log.DebugLogger) *Store {
	return &Store{region: region, logger: logger, connect: connectS3}
}

// Fetch copies the snapshot at location into destDir and returns the local
// path. Local locations are returned unchanged.
func (s *Store) Fetch(location, destDir string) (string, error) {
	return s.fetch(location, destDir)
}

// Upload copies filename to location and returns the resulting location.
// A location ending in "/" is treated as a directory or key prefix.
func (s *Store) Upload(filename, location string) (string, error) {
	return s.upload(filename, location)
}
