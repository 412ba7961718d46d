package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/egorairo/ShelfSense/gaps"
	"github.com/egorairo/ShelfSense/sales"
)

// FileSalesState reads a sales CSV from disk on every Load.
type FileSalesState struct {
	FilePath string
}

func NewFileSalesState(filePath string) *FileSalesState {
	return &FileSalesState{FilePath: filePath}
}

func (f *FileSalesState) Load(ctx context.Context) ([]gaps.SalesRecord, error) {
	file, err := os.Open(f.FilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := sales.ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.FilePath, err)
	}
	return records, nil
}
