package ticketpdf

import (
	"fmt"
	"net/http"
	"strconv"
)

// Sink receives a rendered document
type Sink interface {
	Deliver(filename string, data []byte) error
}

// BufferSink keeps the document in memory, e.g. for an email attachment
type BufferSink struct {
	Filename string
	Data     []byte
}

func (s *BufferSink) Deliver(filename string, data []byte) error {
	s.Filename = filename
	s.Data = data
	return nil
}

// DownloadSink streams the document as a file download
type DownloadSink struct {
	W http.ResponseWriter
}

func (s DownloadSink) Deliver(filename string, data []byte) error {
	header := s.W.Header()
	header.Set("Content-Type", "application/pdf")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	header.Set("Content-Length", strconv.Itoa(len(data)))
	s.W.WriteHeader(http.StatusOK)

	_, err := s.W.Write(data)
	return err
}
