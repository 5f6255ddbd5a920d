// Package archive builds the .dat metadata document and packages it with the original
// document into the output ZIP.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/pkg/utils"
)

// BlobFolder is both the staging folder and the archive folder holding the original document.
const BlobFolder = "BLOBFILES"

// FixedInfo is the literal line every metadata document carries.
const FixedInfo = "Informazioni Fisse: CredemHack2025"

// Metadata document keys.
const (
	KeyName     = "Nome"
	KeySurname  = "Cognome"
	KeyDate     = "Data di redazione"
	KeyUniqueID = "Codice Identificativo Univoco"
)

// BaseName returns the last element of an object name.
func BaseName(objectName string) string {
	return path.Base(strings.TrimSuffix(objectName, "/"))
}

// DatFileName returns the metadata file name for id.
func DatFileName(id string) string {
	return "DocumentsOfRecord_" + id + ".dat"
}

// ArchiveName returns "{basename_without_extension}_{id}_output.zip" for objectName.
func ArchiveName(objectName, id string) string {
	base := BaseName(objectName)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		stem = base
	}
	return fmt.Sprintf("%s_%s_output.zip", stem, id)
}

// MetadataDocument renders the .dat content: the extracted fields, the unique id, the fixed
// line, then every enrichment field in record order. Each line is "key: value\n".
func MetadataDocument(result models.ExtractionResult, id string, enrichment models.Record) string {
	var b strings.Builder
	line := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	line(KeyName, result.Name)
	line(KeySurname, result.Surname)
	line(KeyDate, result.DocumentDate)
	line(KeyUniqueID, id)
	b.WriteString(FixedInfo)
	b.WriteByte('\n')
	for _, f := range enrichment {
		line(f.Key, f.Value)
	}
	return b.String()
}

// Artifact describes the files produced in a workspace.
type Artifact struct {
	ArchiveName string
	ArchivePath string
	DatPath     string
	StagedPath  string
}

// Assembler writes metadata and archive files into a workspace.
type Assembler struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets a logger for file creation events.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// NewAssembler returns an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = utils.OrNop(a.logger)
	return a
}

// Assemble writes the .dat file, stages content under BLOBFILES/{basename}, and zips both.
// All files are created inside ws; the caller owns their removal.
func (a *Assembler) Assemble(ws *Workspace, objectName string, content []byte, result models.ExtractionResult, id string, enrichment models.Record) (*Artifact, error) {
	base := BaseName(objectName)
	if base == "" || base == "." || base == ".." || base == "/" {
		return nil, fmt.Errorf("object name %q has no base name", objectName)
	}
	art := &Artifact{
		ArchiveName: ArchiveName(objectName, id),
		DatPath:     ws.Path(DatFileName(id)),
		StagedPath:  ws.Path(BlobFolder, base),
	}
	art.ArchivePath = ws.Path(art.ArchiveName)

	if err := os.WriteFile(art.DatPath, []byte(MetadataDocument(result, id, enrichment)), 0o600); err != nil {
		return nil, fmt.Errorf("write metadata file: %w", err)
	}
	a.logger.Info("metadata file written", zap.String("path", art.DatPath))

	if err := os.MkdirAll(ws.Path(BlobFolder), 0o700); err != nil {
		return nil, fmt.Errorf("create %s: %w", BlobFolder, err)
	}
	if err := os.WriteFile(art.StagedPath, content, 0o600); err != nil {
		return nil, fmt.Errorf("stage original document: %w", err)
	}
	a.logger.Info("original document staged", zap.String("path", art.StagedPath))

	if err := a.writeZip(art, ws.Path(BlobFolder)); err != nil {
		return nil, err
	}
	a.logger.Info("archive created", zap.String("path", art.ArchivePath))
	return art, nil
}

func (a *Assembler) writeZip(art *Artifact, stagingDir string) (err error) {
	f, err := os.OpenFile(art.ArchivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	if err := a.addFile(zw, art.DatPath, filepath.Base(art.DatPath)); err != nil {
		return err
	}
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", BlobFolder, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := a.addFile(zw, filepath.Join(stagingDir, e.Name()), BlobFolder+"/"+e.Name()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func (a *Assembler) addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.now(),
	})
	if err != nil {
		return fmt.Errorf("add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write %s to archive: %w", name, err)
	}
	return nil
}
