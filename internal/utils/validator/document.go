// internal/utils/validator/document.go
package validator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

const (
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeInvalidMimeType = "INVALID_MIME_TYPE"
	CodeTooManyPages    = "TOO_MANY_PAGES"
)

var disableConfigDir sync.Once

// DocumentValidator checks resume uploads before they are stored.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize int64
	// AllowedTypes maps an extension to the media types accepted for it.
	AllowedTypes map[string][]string
	// MaxPageCount of zero disables the page check.
	MaxPageCount int
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

// FirstError returns the first validation failure, or nil.
func (r *ValidationResult) FirstError() *ValidationError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
	PageCount int    `json:"pageCount,omitempty"`
}

func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize: models.MaxResumeSize,
		AllowedTypes: map[string][]string{
			".pdf": {models.PDFMediaType},
		},
		MaxPageCount: 50,
	}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = DefaultConfig()
	}
	disableConfigDir.Do(api.DisableConfigDir)
	return &DocumentValidator{logger: log, config: config}
}

// Validate checks an upload already held in memory.
func (v *DocumentValidator) Validate(filename string, size int64, data []byte) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      size,
			Extension: strings.ToLower(filepath.Ext(filename)),
			Hash:      hash(data),
		},
	}

	result.add(v.performBasicValidation(result.FileInfo)...)

	result.FileInfo.MimeType = mimetype.Detect(data).String()
	result.add(v.validateMimeType(result.FileInfo)...)

	if result.IsValid && result.FileInfo.Extension == ".pdf" {
		result.add(v.validatePDF(data, &result.FileInfo)...)
	}

	if !result.IsValid {
		v.logger.Info("Upload rejected",
			logger.String("filename", filename),
			logger.String("code", result.Errors[0].Code),
		)
	}
	return result
}

func (r *ValidationResult) add(errs ...ValidationError) {
	if len(errs) == 0 {
		return
	}
	r.IsValid = false
	r.Errors = append(r.Errors, errs...)
}

func (v *DocumentValidator) performBasicValidation(info FileInfo) []ValidationError {
	var errs []ValidationError

	if _, ok := v.config.AllowedTypes[info.Extension]; !ok {
		errs = append(errs, ValidationError{
			Code:    CodeInvalidFileType,
			Message: "Only PDF allowed",
			Field:   "extension",
		})
	}
	if info.Size > v.config.MaxFileSize {
		errs = append(errs, ValidationError{
			Code:    CodeFileTooLarge,
			Message: "File too large",
			Field:   "size",
		})
	}
	return errs
}

// validateMimeType rejects content that is recognisably something else.
// Unrecognised bytes pass so the parser can report them as corrupted.
func (v *DocumentValidator) validateMimeType(info FileInfo) []ValidationError {
	allowed, ok := v.config.AllowedTypes[info.Extension]
	if !ok {
		return nil
	}

	detected := mimetype.Lookup(info.MimeType)
	if detected == nil || info.MimeType == "application/octet-stream" || strings.HasPrefix(info.MimeType, "text/plain") {
		return nil
	}
	for _, m := range allowed {
		if detected.Is(m) {
			return nil
		}
	}
	return []ValidationError{{
		Code:    CodeInvalidMimeType,
		Message: "Only PDF allowed",
		Field:   "mimeType",
	}}
}

// validatePDF enforces the page limit when pdfcpu can read the file. Files it
// cannot read are left for the extraction pipeline to classify.
func (v *DocumentValidator) validatePDF(data []byte, info *FileInfo) (errs []ValidationError) {
	if v.config.MaxPageCount <= 0 || len(data) == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn("pdfcpu panicked reading upload",
				logger.String("filename", info.Filename),
				logger.Any("panic", r),
			)
			errs = nil
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		v.logger.Debug("pdfcpu could not read upload",
			logger.String("filename", info.Filename),
			logger.Error(err),
		)
		return nil
	}

	info.PageCount = ctx.PageCount
	if ctx.PageCount > v.config.MaxPageCount {
		return []ValidationError{{
			Code:    CodeTooManyPages,
			Message: fmt.Sprintf("PDF has too many pages (%d, limit %d)", ctx.PageCount, v.config.MaxPageCount),
			Field:   "pages",
		}}
	}
	return nil
}

func hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
