package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// SaveImage decodes an uploaded image, writes a normalized copy capped at
// maxWidth plus a 300px thumbnail, and returns the stored filename.
func SaveImage(file multipart.File, header *multipart.FileHeader, folder string, maxWidth int) (string, string, error) {
	img, err := imaging.Decode(file)
	if err != nil {
		return "", "", fmt.Errorf("decode image: %w", err)
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", "", err
	}

	name := GenerateID(12)
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	filename := name + ext
	thumbname := name + "_thumb" + ext

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, filepath.Join(folder, filename)); err != nil {
		return "", "", err
	}

	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(folder, thumbname)); err != nil {
		return "", "", err
	}

	return filename, thumbname, nil
}
