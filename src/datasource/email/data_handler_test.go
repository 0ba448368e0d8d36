package email

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, r := range [][]string{{"Airline", "Price"}, {"IndiGo", "3897"}, {"Air India", "7662"}} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestLoadAttachment(t *testing.T) {
	mail := &Email{
		Subject: "fares",
		Attachments: []*Attachment{
			{Filename: "notes.txt", Content: []byte("x")},
			{Filename: "fares.xlsx", Content: workbookBytes(t)},
		},
	}

	var w DataFrameWrapper
	require.NoError(t, w.LoadAttachment(mail, "", 0))
	assert.Equal(t, 2, w.GetDF().Nrow())
	assert.Equal(t, "fares.xlsx", w.Source())

	err := w.LoadAttachment(&Email{Subject: "empty"}, "", 0)
	assert.Error(t, err)
}

func TestXLSXAttachmentHandler(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	h := NewXLSXAttachmentHandler("fares", dir, nil)

	mail := &Email{
		UID:     42,
		Subject: "weekly fares",
		Date:    time.Now(),
		Attachments: []*Attachment{
			{Filename: "fares.xlsx", Content: workbookBytes(t)},
			{Filename: "readme.txt", Content: []byte("skip")},
		},
	}
	require.NoError(t, h.Handle(mail))

	saved := h.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, filepath.Join(dir, "fares.xlsx"), saved[0])
	_, err := os.Stat(filepath.Join(dir, "readme.txt"))
	assert.True(t, os.IsNotExist(err))

	// same UID again is a no-op
	require.NoError(t, h.Handle(mail))
	assert.Len(t, h.Saved(), 1)

	require.NoError(t, h.Handle(&Email{UID: 43, Subject: "newsletter"}))
	assert.Len(t, h.Saved(), 1)
}
