package apps

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const infoFileName = "info"

// readBundleInfo reads and decodes the manifest from an app bundle
// without extracting anything else.
func readBundleInfo(r *zip.Reader) (*Info, error) {
	f, err := r.Open(infoFileName)
	if err != nil {
		return nil, fmt.Errorf("bundle has no %q manifest: %w", infoFileName, err)
	}
	defer f.Close()

	var info Info
	if err := json.NewDecoder(f).Decode(&info); err != nil {
		return nil, fmt.Errorf("invalid %q manifest: %w", infoFileName, err)
	}

	if info.ID == "" {
		return nil, fmt.Errorf("manifest is missing an app id")
	}

	return &info, nil
}

// extractBundle writes the bundle contents under destDir. Member paths
// must stay inside destDir.
func extractBundle(r *zip.Reader, destDir string) error {
	for _, member := range r.File {
		if err := extractBundleFile(member, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractBundleFile(member *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, filepath.Clean(member.Name))
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("bundle member %q escapes destination directory", member.Name)
	}

	if member.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, member.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// copyTree copies a directory recursively, used for dev-mode template
// scaffolds.
func copyTree(srcDir, destDir string) error {
	return filepath.Walk(srcDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(destDir, rel)

		if fi.IsDir() {
			return os.MkdirAll(destPath, 0o755)
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode())
		if err != nil {
			return err
		}
		defer dst.Close()

		_, err = io.Copy(dst, src)
		return err
	})
}
