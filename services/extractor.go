package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

func init() {
	// Load .env before the license key is read; package init runs ahead of main.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	if err := license.SetMeteredKey(os.Getenv("UNIDOC_LICENSE_KEY")); err != nil {
		fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
	}
}

// ExtractTextFromFile reads a file and returns its raw text content,
// dispatching on the extension.
func ExtractTextFromFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", &ExtractionError{Path: path, Err: err}
		}
		return string(content), nil
	case ".pdf":
		return extractTextFromPDF(path)
	default:
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("unsupported file type: %s", ext)}
	}
}

// extractTextFromPDF pulls the text of every page from a PDF file.
func extractTextFromPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", &ExtractionError{Path: path, Err: err}
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", &ExtractionError{Path: path, Err: err}
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", &ExtractionError{Path: path, Err: err}
		}
		sb.WriteString(text)
		sb.WriteString("\n\n") // Space between pages
	}

	return sb.String(), nil
}
