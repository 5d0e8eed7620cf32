package report

import (
	"bytes"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"
)

// OCRSource is the production TextSource: native PDF text layer first,
// then page rasterization plus tesseract when the PDF is image-based, and
// tesseract directly for image uploads.
type OCRSource struct{}

func NewOCRSource() *OCRSource {
	return &OCRSource{}
}

// ExtractPDF tries the text layer and accepts it when it yields more than
// 100 characters (confidence 0.9). Otherwise each page is rasterized and
// OCR'd, with confidence 0.7 when the combined text exceeds 50 characters
// and 0.3 below that. Any failure yields ("", 0.0).
func (s *OCRSource) ExtractPDF(path string) (string, float64) {
	if text := nativePDFText(path); len(strings.TrimSpace(text)) > 100 {
		logger.Log.WithField("chars", len(text)).Info("Extracted PDF text layer")
		return text, 0.9
	}

	logger.Log.Info("PDF appears to be image-based, running OCR")
	text, err := s.ocrPDFPages(path)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to OCR PDF")
		return "", 0.0
	}

	if len(strings.TrimSpace(text)) > 50 {
		return text, 0.7
	}
	return text, 0.3
}

// ExtractImage OCRs a single image upload; confidence 0.8 when more than
// 100 characters came back, 0.5 otherwise.
func (s *OCRSource) ExtractImage(path string) (string, float64) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(path); err != nil {
		logger.Log.WithError(err).Error("Failed to read image")
		return "", 0.0
	}
	text, err := client.Text()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to OCR image")
		return "", 0.0
	}

	logger.Log.WithField("chars", len(text)).Info("Extracted text from image")
	if len(strings.TrimSpace(text)) > 100 {
		return text, 0.8
	}
	return text, 0.5
}

func nativePDFText(path string) string {
	file, reader, err := pdf.Open(path)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to open PDF")
		return ""
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		logger.Log.WithError(err).Debug("PDF has no usable text layer")
		return ""
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return ""
	}
	return buf.String()
}

func (s *OCRSource) ocrPDFPages(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()

	var text strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		img, err := doc.Image(page)
		if err != nil {
			return "", err
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", err
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return "", err
		}
		pageText, err := client.Text()
		if err != nil {
			return "", err
		}

		text.WriteString(pageText)
		text.WriteString("\n")
		logger.Log.WithFields(map[string]interface{}{
			"page":  page + 1,
			"chars": len(pageText),
		}).Info("OCR'd PDF page")
	}

	return text.String(), nil
}
