package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form is a multipart payload, the counterpart of a browser FormData. It is
// sent as-is; the content type with its boundary comes from the encoder.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct{ name, value string }

type formFile struct {
	field, filename string
	content         io.Reader
}

// NewForm returns an empty form.
func NewForm() *Form { return &Form{} }

// Field adds a text field.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name, value})
	return f
}

// File adds a file part read from content.
func (f *Form) File(field, filename string, content io.Reader) *Form {
	f.files = append(f.files, formFile{field, filename, content})
	return f
}

// encode writes the form and returns the body and its content type.
func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("form field %s: %w", fld.name, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("form file %s: %w", file.field, err)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return nil, "", fmt.Errorf("form file %s: %w", file.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("form close: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
