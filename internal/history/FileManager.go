package history

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"worldinfo/internal/history/interfaces"
	"worldinfo/internal/models"
	"worldinfo/internal/providers"
	"worldinfo/internal/services"

	json "github.com/goccy/go-json"
)

var ErrUnknownFormat = errors.New("unknown history file format")

// zstdMagic opens every zstd frame. History written by the desktop tool is
// plain JSON and does not carry it.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// FileManager persists the tracker history as zstd-compressed JSON.
type FileManager struct {
	service    services.TrackerServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.TrackerServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

// SaveToFile writes the full history through a temp file and renames it over
// fileName, so readers never see a partial file.
func (f *FileManager) SaveToFile(fileName string) error {
	snapshot := f.service.GetSnapshot()

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	return writeAtomic(fileName, data)
}

func writeAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores history from fileName. A missing file is not an error.
// Compressed and plain JSON files are both accepted, and files written before
// the versioned envelope are migrated on the fly.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if bytes.HasPrefix(data, zstdMagic) {
		data, err = f.compressor.Decompress(data)
		if err != nil {
			return err
		}
	}

	file, err := decodeHistory(data)
	if err != nil {
		f.logger.Warnf(providers.TypeApp, "Unable to read history file %s: %s", fileName, err)
		return err
	}
	if file.Version < models.HistoryFileVersion {
		f.logger.Warnf(providers.TypeApp, "Migrated history file %s from version %d", fileName, file.Version)
	}

	f.service.PutHistory(file)
	f.logger.Infof(providers.TypeApp, "Restored %d worlds from %s", len(file.Entities), fileName)
	return nil
}

func decodeHistory(data []byte) (*models.HistoryFile, error) {
	var envelope struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch {
	case envelope.Version == models.HistoryFileVersion:
		var file models.HistoryFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, err
		}
		if file.Entities == nil {
			file.Entities = make(map[string]models.HistorySeries)
		}
		return &file, nil
	case envelope.Version == 0:
		var legacy map[string]models.HistorySeries
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
		}
		return &models.HistoryFile{Version: 1, Entities: legacy}, nil
	default:
		return nil, fmt.Errorf("%w: version %d", ErrUnknownFormat, envelope.Version)
	}
}
