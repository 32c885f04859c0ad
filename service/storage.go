package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gstorage "cloud.google.com/go/storage"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/airbusgeo/geocube/interface/storage/uri"
	"github.com/cavaliercoder/grab"
	"github.com/jlaffaye/ftp"
	"github.com/mholt/archiver"
)

// Extension of a file
type Extension string

// Some supported extensions
const (
	NoExtension    Extension = ""
	ExtensionGTiff Extension = "tif"
	ExtensionTIFF  Extension = "tiff"
	ExtensionZIP   Extension = "zip"
)

func isErrNotFound(err error) bool {
	var epath *os.PathError
	return errors.Is(err, gstorage.ErrObjectNotExist) ||
		(errors.As(err, &epath) && os.IsNotExist(epath))
}

// FetchFile makes the file available on the local filesystem and returns its local path.
// src can be a local path, or an url (file://, http(s)://, ftp://, gs://, s3://...).
// Remote files are downloaded in localdir.
// If the file is a zip archive, it is extracted in localdir and the path of the first raster (tif) is returned.
// Raise ErrNotFound if src does not exist.
func FetchFile(ctx context.Context, src, localdir string) (string, error) {
	localFile, err := fetch(ctx, src, localdir)
	if err != nil {
		if isErrNotFound(err) {
			return "", ErrNotFound{Type: "file", ID: src}
		}
		return "", fmt.Errorf("FetchFile[%s].%w", src, err)
	}
	if GetExt(localFile) != ExtensionZIP {
		return localFile, nil
	}
	raster, err := unarchiveRaster(localFile, localdir)
	if err != nil {
		return "", fmt.Errorf("FetchFile[%s].%w", src, err)
	}
	return raster, nil
}

func fetch(ctx context.Context, src, localdir string) (string, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return downloadHTTP(ctx, src, localdir)
	case strings.HasPrefix(src, "ftp://"):
		return downloadFTP(ctx, src, localdir)
	case strings.HasPrefix(src, "file://"):
		src = strings.TrimPrefix(src, "file://")
		fallthrough
	case !strings.Contains(src, "://"):
		if _, err := os.Stat(src); err != nil {
			return "", err
		}
		return src, nil
	}

	u, err := uri.ParseUri(src)
	if err != nil {
		return "", fmt.Errorf("ParseUri: %w", err)
	}
	localFile := filepath.Join(localdir, path.Base(src))
	if err := u.DownloadToFile(ctx, localFile); err != nil {
		return "", err
	}
	return localFile, nil
}

func downloadHTTP(ctx context.Context, url, localdir string) (string, error) {
	req, err := grab.NewRequest(localdir, url)
	if err != nil {
		return "", fmt.Errorf("downloadHTTP.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)

	resp := grab.NewClient().Do(req)
	displayProgress(ctx, url, resp, 0.1)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("download[%s]: %w", url, err)
		if resp.HTTPResponse == nil {
			return "", MakeTemporary(err)
		}
		switch resp.HTTPResponse.StatusCode {
		case 404:
			return "", ErrNotFound{Type: "file", ID: url}
		case 408, 429, 500, 501, 502, 503, 504:
			return "", MakeTemporary(err)
		default:
			return "", err
		}
	}
	return resp.Filename, nil
}

func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress := 0.0
	for {
		select {
		case <-t.C:
			if resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size))
				progress += progressPeriod
			}
		case <-resp.Done:
			return
		}
	}
}

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

// downloadFTP downloads ftp://[user[:password]@]host[:port]/path
func downloadFTP(ctx context.Context, url, localdir string) (string, error) {
	hostPath := strings.TrimPrefix(url, "ftp://")
	user, pword := "anonymous", "anonymous"
	if i := strings.Index(hostPath, "@"); i >= 0 {
		creds := strings.SplitN(hostPath[:i], ":", 2)
		user = creds[0]
		if len(creds) == 2 {
			pword = creds[1]
		}
		hostPath = hostPath[i+1:]
	}
	splits := strings.SplitN(hostPath, "/", 2)
	if len(splits) != 2 || splits[1] == "" {
		return "", fmt.Errorf("downloadFTP: missing path in %s", url)
	}
	host, remotePath := splits[0], splits[1]
	if !strings.Contains(host, ":") {
		host += ":21"
	}

	ftpOption := []ftp.DialOption{ftp.DialWithTimeout(5 * time.Second), ftp.DialWithContext(ctx)}
	if strings.HasSuffix(host, ":990") {
		ftpOption = append(ftpOption, ftp.DialWithTLS(&tls.Config{InsecureSkipVerify: true}))
	}
	c, err := ftp.Dial(host, ftpOption...)
	if err != nil {
		return "", MakeTemporary(fmt.Errorf("downloadFTP.Dial: %w", err))
	}
	defer c.Quit()
	if err = c.Login(user, pword); err != nil {
		return "", fmt.Errorf("downloadFTP.Login: %w", err)
	}

	r, err := c.Retr(remotePath)
	if err != nil {
		return "", fmt.Errorf("downloadFTP.Retr: %w", err)
	}
	defer r.Close()

	localFile := filepath.Join(localdir, path.Base(remotePath))
	destFile, err := os.Create(localFile)
	if err != nil {
		return "", fmt.Errorf("downloadFTP.Create: %w", err)
	}
	defer destFile.Close()

	n, err := io.Copy(destFile, r)
	if err != nil {
		return "", MakeTemporary(fmt.Errorf("downloadFTP.Copy: %w", err))
	}
	log.Logger(ctx).Sugar().Debugf("%s: %s downloaded", url, fmtBytes(n))
	return localFile, nil
}

// unarchiveRaster extracts the archive in a new directory of localDir and returns the first raster found
func unarchiveRaster(localZip, localDir string) (string, error) {
	dir, err := os.MkdirTemp(localDir, filepath.Base(localZip))
	if err != nil {
		return "", MakeTemporary(err)
	}
	if err := archiver.Unarchive(localZip, dir); err != nil {
		return "", fmt.Errorf("unarchive: %w", err)
	}
	var raster string
	err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || raster != "" || info.IsDir() {
			return err
		}
		switch GetExt(p) {
		case ExtensionGTiff, ExtensionTIFF:
			raster = p
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unarchive.Walk: %w", err)
	}
	if raster == "" {
		return "", fmt.Errorf("unarchive: no raster found in %s", localZip)
	}
	return raster, nil
}

// GetExt returns the lower-case extension of the file (without the dot)
func GetExt(filePath string) Extension {
	ext := path.Ext(filePath)
	if ext == "" {
		return NoExtension
	}
	return Extension(strings.ToLower(ext[1:]))
}

// ContentType returns the mime type of a raster file
func ContentType(filePath string) string {
	switch GetExt(filePath) {
	case ExtensionGTiff, ExtensionTIFF:
		return "image/tiff"
	case ExtensionZIP:
		return "application/zip"
	}
	return "application/octet-stream"
}
