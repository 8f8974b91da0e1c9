package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/foodguard/internal/model"
)

// Analyzer produces the verdict for one barcode
type Analyzer interface {
	AnalyzeBarcode(ctx context.Context, barcode string) (*model.AnalysisResult, error)
}

// AnalyzeJob analyzes one barcode of a batch
type AnalyzeJob struct {
	Index    int
	Barcode  string
	Analyzer Analyzer
}

// Execute runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	result, err := j.Analyzer.AnalyzeBarcode(ctx, j.Barcode)
	if err != nil {
		return &BatchResult{Index: j.Index, Barcode: j.Barcode, Error: err}
	}
	return &BatchResult{Index: j.Index, Barcode: j.Barcode, Result: result}
}

// BatchResult is the outcome for one barcode
type BatchResult struct {
	Index   int
	Barcode string
	Result  *model.AnalysisResult
	Error   error
}

// GetError returns the analysis error, if any
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many barcodes concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a batch processor with the given worker count
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessBarcodes analyzes every barcode and returns results in input order.
// Barcodes not reached before ctx is cancelled report the context error.
func (b *BatchProcessor) ProcessBarcodes(ctx context.Context, barcodes []string) []*BatchResult {
	if len(barcodes) == 0 {
		return []*BatchResult{}
	}

	jobs := make([]Job, len(barcodes))
	for i, barcode := range barcodes {
		jobs[i] = &AnalyzeJob{Index: i, Barcode: barcode, Analyzer: b.analyzer}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	results := pool.Run(jobs)

	ordered := make([]*BatchResult, len(barcodes))
	for _, r := range results {
		br := r.(*BatchResult)
		ordered[br.Index] = br
	}
	for i, br := range ordered {
		if br == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &BatchResult{Index: i, Barcode: barcodes[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads barcodes from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	barcodes, err := ReadBarcodesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read barcodes: %w", err)
	}

	return b.ProcessBarcodes(ctx, barcodes), nil
}

// ReadBarcodesFromFile reads one barcode per line. Blank lines and "#" comments
// are skipped, anything after the first field is ignored, duplicates are dropped.
func ReadBarcodesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var barcodes []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		barcode := strings.Fields(line)[0]
		if !seen[barcode] {
			seen[barcode] = true
			barcodes = append(barcodes, barcode)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return barcodes, nil
}
