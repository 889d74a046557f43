package store

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arch-suite/arch-suite/lib/fsutil"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pin/tftp"
)

func parse(location string) (Location, error) {
	if location == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	if !strings.Contains(location, "://") {
		return Location{Scheme: SchemeLocal, Path: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return Location{}, err
	}
	switch u.Scheme {
	case SchemeS3, SchemeTFTP:
	case "file":
		return Location{Scheme: SchemeLocal, Path: u.Path}, nil
	default:
		return Location{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("missing host in: %s", location)
	}
	return Location{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   strings.TrimPrefix(u.Path, "/"),
	}, nil
}

func (l Location) string() string {
	if l.Scheme == SchemeLocal {
		return l.Path
	}
	return l.Scheme + "://" + l.Host + "/" + l.Path
}

func connectS3(region string) (uploader, downloader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return s3manager.NewUploader(sess), s3manager.NewDownloader(sess), nil
}

func (s *Store) fetch(location, destDir string) (string, error) {
	loc, err := parse(location)
	if err != nil {
		return "", err
	}
	if loc.Scheme == SchemeLocal {
		if _, err := os.Stat(loc.Path); err != nil {
			return "", err
		}
		return loc.Path, nil
	}
	name := path.Base(loc.Path)
	if loc.Path == "" || name == "/" || name == "." {
		return "", fmt.Errorf("no file name in: %s", location)
	}
	if err := os.MkdirAll(destDir, fsutil.DirPerms); err != nil {
		return "", err
	}
	filename := filepath.Join(destDir, name)
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY,
		fsutil.PublicFilePerms)
	if err != nil {
		return "", err
	}
	var nBytes int64
	switch loc.Scheme {
	case SchemeS3:
		nBytes, err = s.fetchS3(loc, file)
	case SchemeTFTP:
		nBytes, err = fetchTFTP(loc, file)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filename)
		return "", fmt.Errorf("error fetching: %s: %w", location, err)
	}
	s.logger.Debugf(0, "fetched %s (%d bytes) to %s\n", location, nBytes,
		filename)
	return filename, nil
}

func (s *Store) fetchS3(loc Location, file *os.File) (int64, error) {
	_, down, err := s.connect(s.region)
	if err != nil {
		return 0, err
	}
	return down.Download(file, &s3.GetObjectInput{
		Bucket: aws.String(loc.Host),
		Key:    aws.String(loc.Path),
	})
}

func fetchTFTP(loc Location, file *os.File) (int64, error) {
	address := loc.Host
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, defaultTFTPPort)
	}
	client, err := tftp.NewClient(address)
	if err != nil {
		return 0, err
	}
	wt, err := client.Receive(loc.Path, "octet")
	if err != nil {
		return 0, err
	}
	return wt.WriteTo(file)
}

func (s *Store) upload(filename, location string) (string, error) {
	loc, err := parse(location)
	if err != nil {
		return "", err
	}
	if loc.Path == "" || strings.HasSuffix(loc.Path, "/") {
		loc.Path += filepath.Base(filename)
	}
	switch loc.Scheme {
	case SchemeLocal:
		if info, err := os.Stat(loc.Path); err == nil && info.IsDir() {
			loc.Path = filepath.Join(loc.Path, filepath.Base(filename))
		}
		if err := os.MkdirAll(filepath.Dir(loc.Path), fsutil.DirPerms); err != nil {
			return "", err
		}
		if err := fsutil.CopyFile(loc.Path, filename, 0); err != nil {
			return "", err
		}
	case SchemeS3:
		if err := s.uploadS3(filename, loc); err != nil {
			return "", fmt.Errorf("error uploading to: %s: %w", loc, err)
		}
	default:
		return "", fmt.Errorf("upload not supported for: %s", loc.Scheme)
	}
	s.logger.Debugf(0, "uploaded %s to %s\n", filename, loc)
	return loc.String(), nil
}

func (s *Store) uploadS3(filename string, loc Location) error {
	up, _, err := s.connect(s.region)
	if err != nil {
		return err
	}
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = up.Upload(&s3manager.UploadInput{
		Bucket: aws.String(loc.Host),
		Key:    aws.String(loc.Path),
		Body:   file,
	})
	return err
}
