// reader.go
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"PricingIntelligence/src/processor"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jszwec/csvutil"
	"github.com/tealeg/xlsx"
)

// FileInfo describes a fare file found on disk.
type FileInfo struct {
	Name     string
	FullPath string
	ModTime  time.Time
}

// EnsureDir creates dirPath when it does not exist yet.
func EnsureDir(dirPath string) error {
	if info, err := os.Stat(dirPath); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", dirPath)
	}
	return os.MkdirAll(dirPath, 0755)
}

// IsFareFile reports whether name has a loadable extension.
func IsFareFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// FindLatest returns the most recently modified fare file in dir whose name
// contains keyword. An empty keyword matches every file.
func FindLatest(dir, keyword string) (*FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var latest *FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsFareFile(entry.Name()) || !strings.Contains(entry.Name(), keyword) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == nil || info.ModTime().After(latest.ModTime) {
			latest = &FileInfo{
				Name:     info.Name(),
				FullPath: filepath.Join(dir, info.Name()),
				ModTime:  info.ModTime(),
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no fare files found in %s", dir)
	}
	return latest, nil
}

// SetupSignalHandler cancels on SIGINT or SIGTERM.
func SetupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Printf("\nReceived signal: %v, shutting down...\n", sig)
		cancel()
	}()
}

// Load reads a fare table, choosing the reader by extension. sheetName and
// headerRow apply to workbooks only.
func Load(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return ReadXLSX(filePath, sheetName, headerRow)
	case ".csv":
		return ReadCSV(filePath)
	default:
		return dataframe.New(), fmt.Errorf("unsupported file type: %s", filePath)
	}
}

// ReadXLSX loads one sheet as string columns. An empty sheetName selects the
// first sheet; headerRow is 0-based.
func ReadXLSX(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.New(), fmt.Errorf("xlsx open file false: %w", err)
	}
	return readWorkbook(xlFile, sheetName, headerRow)
}

// ReadXLSXBinary is ReadXLSX for a workbook held in memory, such as a mail
// attachment.
func ReadXLSXBinary(data []byte, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.New(), fmt.Errorf("xlsx open binary false: %w", err)
	}
	return readWorkbook(xlFile, sheetName, headerRow)
}

func readWorkbook(xlFile *xlsx.File, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	if len(xlFile.Sheets) == 0 {
		return dataframe.New(), fmt.Errorf("workbook has no sheets")
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		var ok bool
		if sheet, ok = xlFile.Sheet[sheetName]; !ok {
			return dataframe.New(), fmt.Errorf("sheet %q not found", sheetName)
		}
	}
	return convertSheetToDataFrame(sheet, headerRow)
}

// convertSheetToDataFrame reads the header at headerRow and every non-empty
// row below it. Short rows are padded with empty cells.
func convertSheetToDataFrame(sheet *xlsx.Sheet, headerRow int) (dataframe.DataFrame, error) {
	if headerRow < 0 || headerRow >= len(sheet.Rows) {
		return dataframe.New(), fmt.Errorf("header row %d outside sheet %q with %d rows", headerRow, sheet.Name, len(sheet.Rows))
	}

	var headers []string
	for _, cell := range sheet.Rows[headerRow].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return dataframe.New(), fmt.Errorf("empty header row in sheet %q", sheet.Name)
	}

	columns := make([][]string, len(headers))
	for _, row := range sheet.Rows[headerRow+1:] {
		if row == nil || isEmptyRow(row) {
			continue
		}
		for i := range headers {
			value := ""
			if i < len(row.Cells) && row.Cells[i] != nil {
				value = row.Cells[i].Value
			}
			columns[i] = append(columns[i], value)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}
	df := dataframe.New(seriesList...)
	return df, df.Err
}

func isEmptyRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if cell != nil && strings.TrimSpace(cell.Value) != "" {
			return false
		}
	}
	return true
}

// ReadCSV decodes a fare CSV into the raw table.
func ReadCSV(filePath string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.New(), err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV decodes FlightRecord rows. The header must carry every required
// column under its exact name; unknown columns are ignored. Prices are kept
// as text for ParsePrice.
func ParseCSV(r io.Reader) (dataframe.DataFrame, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return dataframe.New(), fmt.Errorf("failed to create CSV decoder for fares: %w", err)
	}

	have := map[string]bool{}
	for _, h := range decoder.Header() {
		have[h] = true
	}
	var missing []string
	for _, col := range processor.RequiredColumns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return dataframe.New(), fmt.Errorf("%w: %v", processor.ErrMissingColumn, missing)
	}

	var records []processor.FlightRecord
	if err := decoder.Decode(&records); err != nil && err != io.EOF {
		return dataframe.New(), fmt.Errorf("failed to decode fare CSV data: %w", err)
	}
	return processor.RecordsToDataFrame(records), nil
}
