// data_handler.go
package email

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"PricingIntelligence/src/datasource/file"

	"github.com/go-gota/gota/dataframe"
)

// DataFrameWrapper holds the latest fare table loaded from mail. It is safe
// for concurrent use.
type DataFrameWrapper struct {
	df     dataframe.DataFrame
	source string
	mu     sync.RWMutex
}

func (d *DataFrameWrapper) GetDF() dataframe.DataFrame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.df
}

func (d *DataFrameWrapper) SetDF(df dataframe.DataFrame, source string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.df = df
	d.source = source
}

// Source names the attachment the table came from.
func (d *DataFrameWrapper) Source() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.source
}

// ReadXLSX loads a workbook held in memory.
func (d *DataFrameWrapper) ReadXLSX(data []byte, sheetName string, headerRow int) error {
	df, err := file.ReadXLSXBinary(data, sheetName, headerRow)
	if err != nil {
		return err
	}
	d.SetDF(df, "")
	return nil
}

// LoadAttachment reads the first workbook or CSV attached to email.
func (d *DataFrameWrapper) LoadAttachment(email *Email, sheetName string, headerRow int) error {
	for _, att := range email.Attachments {
		var (
			df  dataframe.DataFrame
			err error
		)
		switch strings.ToLower(filepath.Ext(att.Filename)) {
		case ".xlsx":
			df, err = file.ReadXLSXBinary(att.Content, sheetName, headerRow)
		case ".csv":
			df, err = file.ParseCSV(bytes.NewReader(att.Content))
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", att.Filename, err)
		}
		d.SetDF(df, att.Filename)
		return nil
	}
	return fmt.Errorf("mail %q has no fare attachment", email.Subject)
}
