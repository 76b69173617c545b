package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	pq "github.com/parquet-go/parquet-go"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// Row is the parquet layout of a synced record; the record itself is kept as json
type Row struct {
	RecordID    string `parquet:"_record_id"`
	ExtractedAt int64  `parquet:"_extracted_at"`
	Stream      string `parquet:"_stream"`
	Data        string `parquet:"data,json"`
}

type fileMetadata struct {
	fileName    string
	recordCount int64
	file        *os.File
	writer      *pq.GenericWriter[Row]
}

// Parquet writes each stream into rolling local parquet files
// local_path/<stream>/<timestamp>_<ulid>.parquet, optionally uploaded to S3 on close
type Parquet struct {
	options  *destination.Options
	config   *Config
	stream   types.StreamInterface
	basePath string
	files    []*fileMetadata
	uploader *uploader
}

func (p *Parquet) GetConfigRef() destination.Config {
	p.config = &Config{}
	return p.config
}

func (p *Parquet) Spec() any {
	return Config{}
}

func (p *Parquet) Type() string {
	return string(types.Parquet)
}

func (p *Parquet) initUploader() error {
	if !p.config.UploadEnabled() || p.uploader != nil {
		return nil
	}

	uploader, err := newUploader(p.config)
	if err != nil {
		return fmt.Errorf("failed to setup S3 uploader: %s", err)
	}
	p.uploader = uploader
	return nil
}

// Check validates local paths and S3 access if applicable
func (p *Parquet) Check(ctx context.Context) error {
	if err := os.MkdirAll(p.config.Path, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create local path: %s", err)
	}

	if err := p.initUploader(); err != nil {
		return err
	}
	if p.uploader != nil {
		return p.uploader.check(ctx)
	}

	return nil
}

func (p *Parquet) Setup(_ context.Context, stream types.StreamInterface, options *destination.Options) error {
	if err := p.config.Validate(); err != nil {
		return err
	}

	p.options = options
	p.stream = stream
	p.basePath = stream.Name()
	p.files = nil

	return p.initUploader()
}

func (p *Parquet) createNewFile() error {
	directoryPath := filepath.Join(p.config.Path, p.basePath)
	if err := os.MkdirAll(directoryPath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories[%s]: %s", directoryPath, err)
	}

	fileName := utils.TimestampedFileName(constants.ParquetFileExt)
	file, err := os.Create(filepath.Join(directoryPath, fileName))
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %s", err)
	}

	p.files = append(p.files, &fileMetadata{
		fileName: fileName,
		file:     file,
		writer:   pq.NewGenericWriter[Row](file, pq.Compression(p.config.codec())),
	})

	logger.Debugf("created parquet file[%s] for stream[%s]", fileName, p.stream.ID())
	return nil
}

func (p *Parquet) current() *fileMetadata {
	if len(p.files) == 0 {
		return nil
	}
	return p.files[len(p.files)-1]
}

// closeCurrent flushes the open file so that a new one can be rolled
func (p *Parquet) closeCurrent() error {
	meta := p.current()
	if meta == nil || meta.writer == nil {
		return nil
	}

	err := utils.ErrExecSequential(
		utils.ErrExecFormat(fmt.Sprintf("failed to close parquet writer[%s]: %%s", meta.fileName), meta.writer.Close),
		utils.ErrExecFormat(fmt.Sprintf("failed to close parquet file[%s]: %%s", meta.fileName), meta.file.Close),
	)
	meta.writer = nil

	return err
}

func (p *Parquet) Write(_ context.Context, record types.RawRecord) error {
	meta := p.current()
	if meta == nil || meta.writer == nil || meta.recordCount >= p.config.MaxRowsPerFile {
		if err := p.closeCurrent(); err != nil {
			return err
		}
		if err := p.createNewFile(); err != nil {
			return err
		}
		meta = p.current()
	}

	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %s", err)
	}

	_, err = meta.writer.Write([]Row{{
		RecordID:    record.RecordID,
		ExtractedAt: record.ExtractedAt,
		Stream:      p.stream.Name(),
		Data:        string(data),
	}})
	if err != nil {
		return fmt.Errorf("failed to write record: %s", err)
	}

	meta.recordCount++
	return nil
}

// Close closes all parquet files and uploads them to S3 if configured
func (p *Parquet) Close(ctx context.Context) error {
	if err := p.closeCurrent(); err != nil {
		return err
	}

	toUpload := map[string]string{}
	for _, meta := range p.files {
		localPath := filepath.Join(p.config.Path, p.basePath, meta.fileName)
		if meta.recordCount == 0 {
			if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
				logger.Warnf("failed to remove empty parquet file[%s]: %s", localPath, err)
			}
			continue
		}
		toUpload[localPath] = filepath.ToSlash(filepath.Join(p.basePath, meta.fileName))
	}

	if p.uploader == nil || len(toUpload) == 0 {
		return nil
	}

	return p.uploader.upload(ctx, toUpload, p.config.UploadConcurrency)
}

func init() {
	destination.RegisteredWriters[types.Parquet] = func() destination.Writer {
		return new(Parquet)
	}
}
