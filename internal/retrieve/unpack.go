// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSource means the e-print endpoint returned something other than a
// source archive, typically a PDF for papers submitted without TeX.
var ErrNoSource = errors.New("no TeX source available")

// singleFileName is used when the e-print is one gzipped .tex file.
const singleFileName = "main.tex"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
	pdfMagic  = []byte("%PDF")
)

// unpack extracts the downloaded e-print at archivePath into dstDir,
// choosing the format from the file's leading bytes: gzipped tar, a single
// gzipped file, or zip. Entries larger than maxEntry bytes are an error.
func unpack(archivePath, dstDir string, maxEntry int64) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 4)
	n, _ := io.ReadFull(f, head)
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return unpackGzip(f, dstDir, maxEntry)
	case bytes.HasPrefix(head, zipMagic):
		return unpackZip(archivePath, dstDir, maxEntry)
	case bytes.HasPrefix(head, pdfMagic):
		return ErrNoSource
	default:
		return fmt.Errorf("%w: unrecognized archive format", ErrNoSource)
	}
}

func unpackGzip(r io.Reader, dstDir string, maxEntry int64) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gzr.Close()

	br := bufio.NewReaderSize(gzr, 1024)
	if isTar(br) {
		return unpackTar(br, dstDir, maxEntry)
	}
	return writeEntry(filepath.Join(dstDir, singleFileName), br, maxEntry)
}

// isTar peeks for the ustar magic at offset 257 of the first header.
func isTar(br *bufio.Reader) bool {
	hdr, err := br.Peek(262)
	if err != nil {
		return false
	}
	return string(hdr[257:262]) == "ustar"
}

func unpackTar(r io.Reader, dstDir string, maxEntry int64) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		target, ok := safeJoin(dstDir, hdr.Name)
		if !ok {
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, maxEntry); err != nil {
				return err
			}
		}
	}
}

func unpackZip(path, dstDir string, maxEntry int64) error {
	zr, err := zip.OpenReader(path)
	if errors.Is(err, zip.ErrInsecurePath) {
		// Names are checked per entry below.
		err = nil
	}
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, ok := safeJoin(dstDir, zf.Name)
		if !ok {
			continue
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("opening %s: %w", zf.Name, err)
		}
		err = writeEntry(target, rc, maxEntry)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin joins an archive entry name under root, rejecting absolute
// names and names that escape root.
func safeJoin(root, name string) (string, bool) {
	name = filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(name) || name == "." || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(root, name), true
}

func writeEntry(target string, r io.Reader, maxEntry int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(out, io.LimitReader(r, maxEntry+1))
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("writing %s: %w", target, copyErr)
	}
	if closeErr != nil {
		return closeErr
	}
	if n > maxEntry {
		return fmt.Errorf("entry %s exceeds %d bytes", filepath.Base(target), maxEntry)
	}
	return nil
}
