package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

const (
	DefaultManifest = "PackageContents.xml"
	contentsDir     = "Contents"
)

// DefaultPayloads are the plugin assemblies shipped next to the manifest.
var DefaultPayloads = []string{"CrxApp.dll", "Newtonsoft.Json.dll"}

// Spec describes an autoloader bundle: <Name>.bundle/<Manifest> plus every payload
// under <Name>.bundle/Contents/. Files are read from SourceDir.
type Spec struct {
	Name      string
	SourceDir string
	Manifest  string
	Payloads  []string
}

func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("bundle name is required")
	}
	if s.Manifest == "" {
		return errors.New("bundle manifest is required")
	}
	return nil
}

// Entries returns the archive names in write order, keyed by source file.
func (s Spec) Entries() [][2]string {
	root := s.Name + ".bundle"
	entries := [][2]string{{filepath.Join(s.SourceDir, s.Manifest), path.Join(root, s.Manifest)}}
	for _, p := range s.Payloads {
		entries = append(entries, [2]string{filepath.Join(s.SourceDir, p), path.Join(root, contentsDir, p)})
	}
	return entries
}

// Create writes the bundle archive to dst, replacing any existing file.
func Create(dst string, spec Spec) (err error) {
	if err := spec.Validate(); err != nil {
		return err
	}

	zap.S().Named("bundle").Infow("generating autoloader zip", "path", dst, "name", spec.Name)
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing previous bundle: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	for _, e := range spec.Entries() {
		if err := addFile(zw, e[0], e[1]); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
